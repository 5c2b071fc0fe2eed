// Package ws bridges websocket connections into the notification
// dispatcher. A session announces its owner on connect and is removed on
// any disconnect.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cyhinverse/mobile-store-server/internal/auth"
	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/notify"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

type Handler struct {
	issuer     *auth.Issuer
	dispatcher *notify.Dispatcher
	upgrader   websocket.Upgrader
}

func NewHandler(issuer *auth.Issuer, dispatcher *notify.Dispatcher) *Handler {
	return &Handler{
		issuer:     issuer,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve upgrades the request and registers the session under the token's
// user id. Browsers cannot set headers on websocket dials, so the token
// rides in the query string.
func (h *Handler) Serve(c *gin.Context) {
	claims, err := h.issuer.Verify(c.Query("token"), auth.PurposeAccess)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := &session{conn: conn}
	h.dispatcher.Join(claims.UserID, sess)

	go sess.pingLoop()
	go sess.readLoop(func() {
		h.dispatcher.Leave(sess)
	})
}

// session wraps one websocket connection. Writes are serialized by mu so
// Publish and pings never interleave frames.
type session struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

var _ notify.Conn = (*session)(nil)

func (s *session) Send(event domain.OrderStatusChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(event)
}

func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// readLoop drains inbound frames and fires onClose once the peer is gone,
// whatever the cause.
func (s *session) readLoop(onClose func()) {
	defer func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.conn.Close()
		onClose()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
