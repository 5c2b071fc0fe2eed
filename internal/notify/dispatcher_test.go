package notify

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// recordingConn captures delivered events in order.
type recordingConn struct {
	mu     sync.Mutex
	events []domain.OrderStatusChanged
	fail   bool
}

func (c *recordingConn) Send(e domain.OrderStatusChanged) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection gone")
	}
	c.events = append(c.events, e)
	return nil
}

func (c *recordingConn) Events() []domain.OrderStatusChanged {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.OrderStatusChanged, len(c.events))
	copy(out, c.events)
	return out
}

func event(orderID, userID string) domain.OrderStatusChanged {
	return domain.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    userID,
		OldStatus: domain.OrderPending,
		NewStatus: domain.OrderCompleted,
		Timestamp: time.Now().UTC(),
	}
}

func TestDispatcher_FanOutToAllUserConnections(t *testing.T) {
	d := NewDispatcher()
	conn1 := &recordingConn{}
	conn2 := &recordingConn{}

	d.Join("alice", conn1)
	d.Join("alice", conn2)

	d.Publish(event("order-1", "alice"))

	require.Len(t, conn1.Events(), 1)
	require.Len(t, conn2.Events(), 1)
	assert.Equal(t, "order-1", conn1.Events()[0].OrderID)
}

func TestDispatcher_LeaveStopsDelivery(t *testing.T) {
	d := NewDispatcher()
	conn1 := &recordingConn{}
	conn2 := &recordingConn{}

	d.Join("alice", conn1)
	d.Join("alice", conn2)

	d.Publish(event("order-1", "alice"))
	d.Leave(conn1)
	d.Publish(event("order-2", "alice"))

	assert.Len(t, conn1.Events(), 1)
	require.Len(t, conn2.Events(), 2)
	assert.Equal(t, "order-2", conn2.Events()[1].OrderID)
}

func TestDispatcher_EventsOnlyReachTheOwner(t *testing.T) {
	d := NewDispatcher()
	alice := &recordingConn{}
	bob := &recordingConn{}

	d.Join("alice", alice)
	d.Join("bob", bob)

	d.Publish(event("order-1", "alice"))

	assert.Len(t, alice.Events(), 1)
	assert.Empty(t, bob.Events())
}

func TestDispatcher_NoConnectionsDropsEvent(t *testing.T) {
	d := NewDispatcher()
	// Publishing into the void must not panic or block.
	d.Publish(event("order-1", "nobody"))
	assert.Equal(t, 0, d.Connections("nobody"))
}

func TestDispatcher_DeadConnectionSwallowed(t *testing.T) {
	d := NewDispatcher()
	dead := &recordingConn{fail: true}
	live := &recordingConn{}

	d.Join("alice", dead)
	d.Join("alice", live)

	d.Publish(event("order-1", "alice"))

	assert.Len(t, live.Events(), 1)
}

func TestDispatcher_RejoinIsNoOp(t *testing.T) {
	d := NewDispatcher()
	conn := &recordingConn{}

	d.Join("alice", conn)
	d.Join("alice", conn)

	assert.Equal(t, 1, d.Connections("alice"))

	d.Publish(event("order-1", "alice"))
	assert.Len(t, conn.Events(), 1)
}

func TestDispatcher_PerUserOrdering(t *testing.T) {
	d := NewDispatcher()
	conn := &recordingConn{}
	d.Join("alice", conn)

	for i := 0; i < 100; i++ {
		d.Publish(event(fmt.Sprintf("order-%03d", i), "alice"))
	}

	events := conn.Events()
	require.Len(t, events, 100)
	for i, e := range events {
		assert.Equal(t, fmt.Sprintf("order-%03d", i), e.OrderID)
	}
}

func TestDispatcher_ConcurrentJoinLeavePublish(t *testing.T) {
	d := NewDispatcher()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n%4)
			conn := &recordingConn{}
			for j := 0; j < 100; j++ {
				d.Join(user, conn)
				d.Publish(event("order-x", user))
				d.Leave(conn)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		assert.Equal(t, 0, d.Connections(fmt.Sprintf("user-%d", i)))
	}
}

func TestDispatcher_LeaveUnknownConnection(t *testing.T) {
	d := NewDispatcher()
	d.Leave(&recordingConn{})
}
