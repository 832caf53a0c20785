// Package feedback publishes navigation feedback to connected overlay clients.
package feedback

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/gesture"
)

const (
	clientBuffer = 16
	writeWait    = 2 * time.Second
)

// Message is one feedback notification as sent to clients.
type Message struct {
	Direction string    `json:"direction"`
	Arrow     string    `json:"arrow"`
	Boundary  bool      `json:"boundary"`
	At        time.Time `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans feedback out to websocket clients. Show never blocks: slow clients
// miss messages.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *Message
}

// NewHub creates a hub. allowAnyOrigin disables the same-origin check.
func NewHub(allowAnyOrigin bool) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     isSameOrigin,
		},
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
	if allowAnyOrigin {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return h
}

// Show implements gesture.Feedback.
func (h *Hub) Show(dir gesture.Direction, boundary bool) {
	msg := Message{
		Direction: dir.String(),
		Arrow:     dir.Arrow(),
		Boundary:  boundary,
		At:        h.now(),
	}
	if boundary {
		log.Debugf("Feedback %s (end of history)", msg.Arrow)
	} else {
		log.Debugf("Feedback %s", msg.Arrow)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Debug("Feedback client too slow, message dropped")
		}
	}
}

// Last returns the most recent message, if any.
func (h *Hub) Last() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return Message{}, false
	}
	return *h.last, true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debugf("Feedback client closed: %v", err)
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Debugf("Feedback write failed: %v", err)
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}
