// Package notify fans order status events out to the owner's live
// connections. Delivery is best-effort: no replay queue, no retries; a
// client that missed an event re-queries the order endpoint.
package notify

import (
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// Conn is one live client connection. Send must be safe for concurrent use;
// the websocket adapter serializes writes internally.
type Conn interface {
	Send(event domain.OrderStatusChanged) error
}

const shardCount = 32

// shard holds the connection sets for the users hashing into it. Join,
// Leave and Publish for one user contend only on that user's shard.
type shard struct {
	mu    sync.RWMutex
	users map[string]map[Conn]struct{}
}

// Dispatcher maps user ids to their live connections. A user may hold zero,
// one or many connections at once (several devices).
type Dispatcher struct {
	shards [shardCount]*shard

	// conn→user index so Leave needs only the connection.
	ownersMu sync.Mutex
	owners   map[Conn]string
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{owners: make(map[Conn]string)}
	for i := range d.shards {
		d.shards[i] = &shard{users: make(map[string]map[Conn]struct{})}
	}
	return d
}

func (d *Dispatcher) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return d.shards[h.Sum32()%shardCount]
}

// Join adds conn to userID's set. Joining a connection that is already a
// member is a no-op.
func (d *Dispatcher) Join(userID string, conn Conn) {
	d.ownersMu.Lock()
	d.owners[conn] = userID
	d.ownersMu.Unlock()

	s := d.shardFor(userID)
	s.mu.Lock()
	set, ok := s.users[userID]
	if !ok {
		set = make(map[Conn]struct{})
		s.users[userID] = set
	}
	set[conn] = struct{}{}
	s.mu.Unlock()
}

// Leave removes conn from whichever user set it belongs to. Safe to call
// for a connection that never joined or already left.
func (d *Dispatcher) Leave(conn Conn) {
	d.ownersMu.Lock()
	userID, ok := d.owners[conn]
	if ok {
		delete(d.owners, conn)
	}
	d.ownersMu.Unlock()
	if !ok {
		return
	}

	s := d.shardFor(userID)
	s.mu.Lock()
	if set, ok := s.users[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(s.users, userID)
		}
	}
	s.mu.Unlock()
}

// Publish delivers event to every live connection of event.UserID, in call
// order per user. Send failures (a connection racing Leave) are swallowed.
// A user with no connections gets nothing; durable state lives in the
// ledger.
func (d *Dispatcher) Publish(event domain.OrderStatusChanged) {
	s := d.shardFor(event.UserID)

	s.mu.RLock()
	set := s.users[event.UserID]
	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(event); err != nil {
			slog.Debug("notify send failed",
				slog.String("user_id", event.UserID),
				slog.String("order_id", event.OrderID),
				slog.Any("error", err))
		}
	}
}

// Connections reports how many live connections userID currently holds.
func (d *Dispatcher) Connections(userID string) int {
	s := d.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users[userID])
}
