// Package ws tracks the live WebSocket connections of authenticated users
// and fans events out to them. A user may hold any number of simultaneous
// connections; the user counts as offline only when the last one goes away.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

type Hub struct {
	authKey jwk.Key
	logger  logger

	mu    sync.Mutex
	conns map[*Client]struct{}
	// users maps a user ID to the set of that user's live connections. An
	// entry is deleted as soon as its set empties; no empty sets persist.
	users map[string]map[*Client]struct{}
}

func NewHub(authKey jwk.Key, l logger) *Hub {
	return &Hub{
		authKey: authKey,
		logger:  l,
		conns:   make(map[*Client]struct{}),
		users:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Debugf("ws: Connection registered, total connections: %d", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		h.removeFromUserLocked(c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debugf("ws: Connection unregistered, UserID: %s", c.userID)
}

// bind associates an authenticated connection with its user channel. A
// connection rejoining as a different user is detached from its previous
// one first, so no stale entry outlives the rebind.
func (h *Hub) bind(c *Client, userID string) int {
	h.mu.Lock()
	h.removeFromUserLocked(c)
	c.userID = userID
	set, ok := h.users[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[userID] = set
	}
	set[c] = struct{}{}
	n := len(set)
	h.mu.Unlock()
	return n
}

// unbind detaches a connection from its user channel without closing it,
// symmetric to a disconnect. Used by the explicit leave protocol (logout).
func (h *Hub) unbind(c *Client) {
	h.mu.Lock()
	h.removeFromUserLocked(c)
	c.userID = ""
	h.mu.Unlock()
}

func (h *Hub) removeFromUserLocked(c *Client) {
	if c.userID == "" {
		return
	}
	if set, ok := h.users[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
}

// EmitToUser delivers an event to every live connection of one user. If the
// user has no live connections the event is dropped; the durable record of
// truth is the stored PriceAlert, read back on demand.
func (h *Hub) EmitToUser(userID string, event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		h.logger.Errorf("ws: Error marshalling %s event for UserID: %s, err: %v", event, userID, err)
		return
	}
	h.mu.Lock()
	for c := range h.users[userID] {
		c.trySend(msg)
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every connection, authenticated or not.
// Used only for sweep status events, never for price-drop content.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		h.logger.Errorf("ws: Error marshalling %s broadcast event, err: %v", event, err)
		return
	}
	h.mu.Lock()
	for c := range h.conns {
		c.trySend(msg)
	}
	h.mu.Unlock()
}

// EmitPriceDrop sends a user-scoped price-drop alert.
func (h *Hub) EmitPriceDrop(userID string, alert PriceDropAlert) {
	h.EmitToUser(userID, EventPriceDrop, alert)
	h.logger.Infof("ws: Price drop alert sent to UserID: %s, product: %s", userID, alert.ProductTitle)
}

// BroadcastCheckStatus announces sweep lifecycle to all connected clients.
func (h *Hub) BroadcastCheckStatus(status CheckStatus) {
	h.Broadcast(EventPriceCheckStatus, status)
}

// ConnectedUserCount reports the number of distinct authenticated users with
// at least one live connection.
func (h *Hub) ConnectedUserCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users)
}

func (h *Hub) verifyToken(raw string) (string, error) {
	token, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, h.authKey), jwt.WithValidate(true))
	if err != nil {
		return "", err
	}
	return token.Subject(), nil
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
