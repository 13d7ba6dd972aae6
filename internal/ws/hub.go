package ws

import (
	"encoding/json"
	"sync"
	"time"

	"coinmeet/internal/metrics"
)

const sendBuffer = 64

// Event is the JSON frame pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Client is one websocket connection of an authenticated user. Frames queue
// on Send until the write pump picks them up.
type Client struct {
	UserID   uint
	UserType string
	Send     chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(userID uint, userType string) *Client {
	return &Client{UserID: userID, UserType: userType, Send: make(chan []byte, sendBuffer)}
}

// Close unregisters the client and closes Send. Safe to call twice.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.hub != nil {
		c.hub.unregister(c)
	}
	close(c.Send)
}

// offer queues a frame without blocking.
func (c *Client) offer(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// Hub indexes open connections by user. A user may be connected from
// several devices at once.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byUser: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	set := h.byUser[c.UserID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.byUser[c.UserID] = set
	}
	set[c] = struct{}{}
	metrics.WSConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.byUser[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.byUser, c.UserID)
	}
	metrics.WSConnections.Dec()
}

// SendToUser queues ev on every connection of userID and returns how many
// accepted it. A client with a full buffer misses the frame.
func (h *Hub) SendToUser(userID uint, ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.offer(frame) {
			delivered++
		} else {
			metrics.WSFramesDropped.Inc()
		}
	}
	return delivered
}

func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// ClientCount is the number of open connections across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.byUser {
		n += len(set)
	}
	return n
}
