package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, 64)}
}

func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case msg := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		return env
	default:
		t.Fatal("no message in send buffer")
		return Envelope{}
	}
}

func TestHubBindUnbind(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.register(c1)
	h.register(c2)
	assert.Equal(t, 0, h.ConnectedUserCount())

	assert.Equal(t, 1, h.bind(c1, "user-1"))
	assert.Equal(t, 2, h.bind(c2, "user-1"))
	assert.Equal(t, 1, h.ConnectedUserCount())

	h.unregister(c1)
	assert.Equal(t, 1, h.ConnectedUserCount())

	h.unregister(c2)
	assert.Equal(t, 0, h.ConnectedUserCount())
	assert.Empty(t, h.users, "empty user entries must be deleted")
}

func TestHubRebind(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c := newTestClient(h)
	h.register(c)
	h.bind(c, "user-a")
	require.Equal(t, 1, h.ConnectedUserCount())

	h.bind(c, "user-b")
	assert.Equal(t, 1, h.ConnectedUserCount(), "old binding must be released on rebind")
	_, ok := h.users["user-a"]
	assert.False(t, ok, "no entry may linger for the previous user")

	h.EmitToUser("user-b", EventError, errorData{Message: "hello"})
	env := recvEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)

	h.unregister(c)
	assert.Equal(t, 0, h.ConnectedUserCount())
	assert.NotPanics(t, func() {
		h.EmitToUser("user-a", EventError, errorData{Message: "gone"})
	})
}

func TestHubLeaveKeepsConnection(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c := newTestClient(h)
	h.register(c)
	h.bind(c, "user-1")
	require.Equal(t, 1, h.ConnectedUserCount())

	h.unbind(c)
	assert.Equal(t, 0, h.ConnectedUserCount())
	assert.Empty(t, c.userID)

	h.Broadcast(EventPriceCheckStatus, CheckStatus{Status: CheckStatusStarted})
	env := recvEnvelope(t, c)
	assert.Equal(t, EventPriceCheckStatus, env.Event)
}

func TestHubEmitToUser(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	other := newTestClient(h)
	h.register(c1)
	h.register(c2)
	h.register(other)
	h.bind(c1, "user-1")
	h.bind(c2, "user-1")
	h.bind(other, "user-2")

	h.EmitPriceDrop("user-1", PriceDropAlert{
		ProductID:    "123",
		ProductTitle: "Mechanical Keyboard",
		OldPrice:     1000,
		NewPrice:     950,
		Timestamp:    time.Now(),
	})

	for _, c := range []*Client{c1, c2} {
		env := recvEnvelope(t, c)
		assert.Equal(t, EventPriceDrop, env.Event)
	}
	assert.Empty(t, other.send, "emit must not reach other users")
}

func TestHubEmitToOfflineUserIsNoop(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c := newTestClient(h)
	h.register(c)
	h.bind(c, "user-1")

	assert.NotPanics(t, func() {
		h.EmitToUser("user-gone", EventPriceDrop, PriceDropAlert{ProductID: "123"})
	})
	assert.Empty(t, c.send)
}

func TestHubBroadcastIncludesUnauthenticated(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	bound := newTestClient(h)
	anon := newTestClient(h)
	h.register(bound)
	h.register(anon)
	h.bind(bound, "user-1")

	h.BroadcastCheckStatus(CheckStatus{
		Status:          CheckStatusCompleted,
		Message:         "Price check completed, checked 3 products",
		ProductsChecked: 3,
		AlertsSent:      1,
		Timestamp:       time.Now(),
	})

	for _, c := range []*Client{bound, anon} {
		env := recvEnvelope(t, c)
		assert.Equal(t, EventPriceCheckStatus, env.Event)
	}
}

func TestHubTrySendDropsWhenBufferFull(t *testing.T) {
	h := NewHub(nil, nopLogger{})

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.register(c)
	h.bind(c, "user-1")

	h.EmitToUser("user-1", EventError, errorData{Message: "first"})
	assert.NotPanics(t, func() {
		h.EmitToUser("user-1", EventError, errorData{Message: "second"})
	})
	assert.Len(t, c.send, 1)
}

func TestHubVerifyToken(t *testing.T) {
	key, err := jwk.FromRaw([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	h := NewHub(key, nopLogger{})

	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject("user-1").
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, key))
	require.NoError(t, err)

	userID, err := h.verifyToken(string(signed))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = h.verifyToken("not-a-token")
	assert.Error(t, err)

	expired, err := jwt.NewBuilder().
		Subject("user-1").
		IssuedAt(now.Add(-2 * time.Hour)).
		Expiration(now.Add(-time.Hour)).
		Build()
	require.NoError(t, err)
	signedExpired, err := jwt.Sign(expired, jwt.WithKey(jwa.HS256, key))
	require.NoError(t, err)
	_, err = h.verifyToken(string(signedExpired))
	assert.Error(t, err)
}
