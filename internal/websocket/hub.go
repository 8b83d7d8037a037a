package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned by Send once a subscriber is gone or can't keep up
var ErrClientClosed = errors.New("client is closed")

// Subscriber receives serialized import events
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub fans events out to every connected subscriber. A subscriber whose Send
// fails is dropped. Safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	logger      zerolog.Logger
}

// NewHub creates a Hub that logs through the global logger
func NewHub() *Hub {
	return NewHubWithLogger(log.Logger)
}

// NewHubWithLogger creates a Hub with its own logger
func NewHubWithLogger(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		logger:      logger.With().Str("component", "event_hub").Logger(),
	}
}

// Register adds a subscriber
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subscribers[s.ID()] = s
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug().Str("client_id", s.ID()).Int("subscribers", count).Msg("Subscriber joined")
}

// Unregister removes a subscriber. Unknown subscribers are ignored.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s.ID()]
	delete(h.subscribers, s.ID())
	h.mu.Unlock()

	if ok {
		h.logger.Debug().Str("client_id", s.ID()).Msg("Subscriber left")
	}
}

// Broadcast sends event to every subscriber
func (h *Hub) Broadcast(event Event) {
	data, err := event.ToJSON()
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", event.Type).Msg("Failed to serialize event")
		return
	}

	targets := h.snapshot()
	for _, s := range targets {
		if err := s.Send(data); err != nil {
			h.logger.Warn().
				Err(err).
				Str("client_id", s.ID()).
				Str("event_type", event.Type).
				Msg("Dropping subscriber")
			h.Unregister(s)
			s.Close()
		}
	}

	if len(targets) > 0 {
		h.logger.Debug().Str("event_type", event.Type).Int("subscribers", len(targets)).Msg("Broadcast event")
	}
}

// Shutdown closes and forgets every subscriber
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subscribers := h.subscribers
	h.subscribers = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, s := range subscribers {
		s.Close()
	}
	h.logger.Info().Int("subscribers", len(subscribers)).Msg("Event hub shut down")
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) snapshot() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		out = append(out, s)
	}
	return out
}
