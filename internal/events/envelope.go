// Package events turns session decisions into versioned envelopes and fans
// them out to live subscribers.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/intent"
)

// CanonicalEvent is a versioned session event payload.
type CanonicalEvent interface {
	EventType() string
}

// Envelope captures transport metadata for canonical events.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	SessionID       string          `json:"session_id"`
	TimestampMicros int64           `json:"timestamp"`
	Payload         json.RawMessage `json:"payload"`
}

type CrisisLevelChangedV1 struct {
	SessionID   string              `json:"session_id"`
	CrisisLevel emotion.CrisisLevel `json:"crisis_level"`
}

func (CrisisLevelChangedV1) EventType() string { return "crisis.level_changed.v1" }

type ReplyV1 struct {
	SessionID string `json:"session_id"`
	intent.Reply
}

func (ReplyV1) EventType() string { return "assistant.reply.v1" }

type EscalationStateChangedV1 struct {
	escalation.Status
}

func (EscalationStateChangedV1) EventType() string { return "escalation.state_changed.v1" }

// EnvelopeOption customizes the generated envelope (useful in tests).
type EnvelopeOption func(*Envelope)

// WithEventID overrides the automatically generated event id.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithTimestamp overrides the timestamp stored in microseconds.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if ts.IsZero() {
			return
		}
		e.TimestampMicros = ts.UTC().UnixMicro()
	}
}

var (
	errMissingSession = errors.New("events: session id is required")
	errNilEvent       = errors.New("events: canonical event required")
	nowFunc           = time.Now
)

// NewEnvelope wraps evt for sessionID.
func NewEnvelope(sessionID string, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Envelope{}, errMissingSession
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	env := Envelope{
		EventID:         uuid.New(),
		EventType:       evt.EventType(),
		SessionID:       sessionID,
		TimestampMicros: nowFunc().UTC().UnixMicro(),
		Payload:         payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}
