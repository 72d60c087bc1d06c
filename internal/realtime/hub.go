package realtime

import (
	"encoding/json"
	"sync"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// Publisher pushes real-time events to connected users. Delivery is
// best-effort and at-most-once: offline recipients and full send buffers
// are skipped, never queued or retried. Durable state lives in the store,
// not in the event channel.
type Publisher interface {
	PublishToUser(userID string, event models.RealtimeEvent)
	PublishToUsers(userIDs []string, event models.RealtimeEvent)
}

// Hub tracks connected websocket clients by user id and fans events out to
// them. A user may hold several connections (multiple tabs); each gets its
// own copy.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}

	metrics.RealtimeConnections.Inc()
	logger.Debug("realtime client connected", zap.String("user_id", c.userID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}

	metrics.RealtimeConnections.Dec()
	logger.Debug("realtime client disconnected", zap.String("user_id", c.userID))
}

// PublishToUser sends an event to all of a user's connections. A connection
// whose send buffer is full drops the event rather than blocking the caller.
func (h *Hub) PublishToUser(userID string, event models.RealtimeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to encode realtime event",
			zap.String("event_type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			metrics.RealtimeEventsPublished.WithLabelValues(event.Type).Inc()
		default:
			metrics.RealtimeEventsDropped.WithLabelValues(event.Type).Inc()
			logger.Warn("realtime send buffer full, dropping event",
				zap.String("user_id", userID),
				zap.String("event_type", event.Type))
		}
	}
}

// PublishToUsers sends an event to each listed user
func (h *Hub) PublishToUsers(userIDs []string, event models.RealtimeEvent) {
	for _, id := range userIDs {
		h.PublishToUser(id, event)
	}
}

// ConnectedUsers returns the number of distinct users with at least one
// open connection
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Publisher = (*Hub)(nil)
