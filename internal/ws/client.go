package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. userID is empty until a join with a
// valid token succeeds; an unauthenticated connection stays open and
// receives broadcasts but is never the target of a user-scoped emit.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

type clientMessage struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

// Handler upgrades the request and services the connection.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debugf("ws: Failed to upgrade connection from %s, err: %v", r.RemoteAddr, err)
			return
		}
		c := &Client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, 64),
		}
		h.register(c)
		go c.writePump()
		go c.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debugf("ws: Read error, UserID: %s, err: %v", c.userID, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Debugf("ws: Invalid message: %s, err: %v", raw, err)
			continue
		}

		switch msg.Action {
		case "join":
			c.handleJoin(msg.Token)
		case "leave":
			c.hub.unbind(c)
		}
	}
}

func (c *Client) handleJoin(token string) {
	if token == "" {
		c.sendEvent(EventError, errorData{Message: "No token provided"})
		return
	}
	userID, err := c.hub.verifyToken(token)
	if err != nil {
		c.hub.logger.Debugf("ws: Failed to verify join token, err: %v", err)
		c.sendEvent(EventError, errorData{Message: "Authentication failed"})
		return
	}
	n := c.hub.bind(c, userID)
	c.hub.logger.Infof("ws: UserID: %s joined (%d connection(s))", userID, n)
	c.sendEvent(EventJoined, joinedData{
		Success: true,
		Message: "Connected to price alerts",
		UserID:  userID,
	})
}

func (c *Client) sendEvent(event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		c.hub.logger.Errorf("ws: Error marshalling %s event, err: %v", event, err)
		return
	}
	c.trySend(msg)
}

// trySend never blocks: a client whose send buffer is full is considered
// stalled and the message is dropped for it.
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
