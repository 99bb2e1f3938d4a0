package escalation

import (
	"context"

	"github.com/wolfman30/crisis-companion/internal/emotion"
)

// State is the safety-escalation protocol state of one session.
type State string

const (
	StateIdle         State = "IDLE"
	StateArmed        State = "ARMED"
	StateCountingDown State = "COUNTING_DOWN"
	StateEscalated    State = "ESCALATED"
	StateResolved     State = "RESOLVED"
)

// Status is published on every state change and every countdown tick.
type Status struct {
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id"`
	From      State               `json:"from"`
	State     State               `json:"state"`
	Level     emotion.CrisisLevel `json:"crisis_level"`
	// CountdownRemaining is nil unless a countdown is shown to the user.
	CountdownRemaining *int `json:"countdown_remaining,omitempty"`
	CounselorRequested bool `json:"counselor_requested"`
	CounselorConnected bool `json:"counselor_connected"`
}

// Changed reports whether the status marks a state transition rather than a tick.
func (s Status) Changed() bool {
	return s.From != s.State
}

// Notifier is the external emergency/notification collaborator.
type Notifier interface {
	NotifyCrisisTrigger(ctx context.Context, userID string, level emotion.CrisisLevel, snapshot []emotion.Reading) error
	NotifyEscalated(ctx context.Context, userID string, level emotion.CrisisLevel) error
	NotifySafetyConfirmed(ctx context.Context, userID string) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyCrisisTrigger(context.Context, string, emotion.CrisisLevel, []emotion.Reading) error {
	return nil
}

func (NopNotifier) NotifyEscalated(context.Context, string, emotion.CrisisLevel) error { return nil }

func (NopNotifier) NotifySafetyConfirmed(context.Context, string) error { return nil }
