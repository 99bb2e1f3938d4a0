package events

import (
	"sync"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

const defaultSubscriberBuffer = 64

// Hub is a session listener that publishes envelopes to per-session
// subscribers. Publishing never blocks: a subscriber whose buffer is full
// misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	logger *logging.Logger
}

type subscriber struct {
	ch     chan Envelope
	closed bool
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), logger: logger}
}

// Subscribe returns a channel of envelopes for sessionID and a cancel func
// that closes it. Cancel is safe to call more than once.
func (h *Hub) Subscribe(sessionID string, buffer int) (<-chan Envelope, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sub := &subscriber{ch: make(chan Envelope, buffer)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		close(sub.ch)
		delete(h.subs[sessionID], sub)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

func (h *Hub) CrisisLevelChanged(sessionID string, level emotion.CrisisLevel) {
	h.publish(sessionID, CrisisLevelChangedV1{SessionID: sessionID, CrisisLevel: level})
}

func (h *Hub) Reply(sessionID string, reply intent.Reply) {
	h.publish(sessionID, ReplyV1{SessionID: sessionID, Reply: reply})
}

func (h *Hub) EscalationStateChanged(sessionID string, st escalation.Status) {
	h.publish(sessionID, EscalationStateChangedV1{Status: st})
}

func (h *Hub) publish(sessionID string, evt CanonicalEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.subs[sessionID]
	if len(subs) == 0 {
		return
	}
	env, err := NewEnvelope(sessionID, evt)
	if err != nil {
		h.logger.Error("event envelope failed", "error", err, "session_id", sessionID)
		return
	}
	for sub := range subs {
		select {
		case sub.ch <- env:
		default:
			h.logger.Warn("event subscriber lagging, dropping", "session_id", sessionID, "event_type", env.EventType)
		}
	}
}
