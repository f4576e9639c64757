package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const subscriberBufferSize = 16

// Hub fans session events out to websocket subscribers. Slow subscribers are
// skipped rather than blocking the session's event path.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "notify_hub").Logger(),
	}
}

// Subscribe registers a listener for one session's events. The returned
// cancel function must be called when the listener goes away.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	listeners, ok := h.subscribers[sessionID]
	if !ok {
		listeners = make(map[chan Event]struct{})
		h.subscribers[sessionID] = listeners
	}
	listeners[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if listeners, ok := h.subscribers[sessionID]; ok {
			delete(listeners, ch)
			if len(listeners) == 0 {
				delete(h.subscribers, sessionID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Toast broadcasts a toast event to the session's subscribers.
func (h *Hub) Toast(sessionID string, toast Toast) {
	clean := strings.TrimSpace(h.sanitizer.Sanitize(toast.Message))
	h.broadcast(sessionID, Event{
		Type:      "toast",
		SessionID: sessionID,
		Toast:     &Toast{Kind: toast.Kind, Message: clean},
		SentAt:    time.Now().UTC(),
	})
}

// StateChanged broadcasts a state transition event.
func (h *Hub) StateChanged(sessionID string, state string) {
	h.broadcast(sessionID, Event{
		Type:      "state",
		SessionID: sessionID,
		State:     state,
		SentAt:    time.Now().UTC(),
	})
}

func (h *Hub) broadcast(sessionID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
			h.logger.Warn().Str("session_id", sessionID).Msg("dropping event for slow subscriber")
		}
	}
}
