package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSendToUser(t *testing.T) {
	h := NewHub()
	a := NewClient(1, "male")
	b := NewClient(1, "male")
	other := NewClient(2, "female")
	h.Register(a)
	h.Register(b)
	h.Register(other)
	assert.Equal(t, 3, h.ClientCount())

	n := h.SendToUser(1, Event{Type: "balance.updated", Data: map[string]int64{"coin_balance": 10}})
	assert.Equal(t, 2, n)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			var ev Event
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, "balance.updated", ev.Type)
			assert.False(t, ev.At.IsZero())
		default:
			t.Fatal("expected a frame")
		}
	}
	assert.Len(t, other.Send, 0)
}

func TestClientCloseUnregisters(t *testing.T) {
	h := NewHub()
	c := NewClient(7, "female")
	h.Register(c)
	assert.True(t, h.IsOnline(7))

	c.Close()
	c.Close()
	assert.False(t, h.IsOnline(7))
	assert.Zero(t, h.SendToUser(7, Event{Type: "noop"}))
	assert.Zero(t, h.ClientCount())
}

func TestSendToUserDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := NewClient(3, "male")
	h.Register(c)
	for i := 0; i < sendBuffer; i++ {
		require.Equal(t, 1, h.SendToUser(3, Event{Type: "tick"}))
	}
	assert.Zero(t, h.SendToUser(3, Event{Type: "tick"}))
	assert.Len(t, c.Send, sendBuffer)
}
