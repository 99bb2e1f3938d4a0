// Package incidents keeps an audit log of crisis countdowns: when they
// started, escalated or resolved.
package incidents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/crisis-companion/internal/escalation"
)

// Kind is the escalation transition an incident records.
type Kind string

const (
	KindArmed     Kind = "armed"
	KindEscalated Kind = "escalated"
	KindResolved  Kind = "resolved"
)

// ErrInvalidLimit is returned for non-positive list limits.
var ErrInvalidLimit = errors.New("incidents: limit must be positive")

// DefaultListLimit caps ListByUser when the caller passes no limit.
const DefaultListLimit = 50

// Incident is one recorded escalation transition.
type Incident struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          string    `json:"session_id"`
	UserID             string    `json:"user_id"`
	Kind               Kind      `json:"kind"`
	CrisisLevel        string    `json:"crisis_level"`
	CounselorRequested bool      `json:"counselor_requested"`
	CounselorConnected bool      `json:"counselor_connected"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Store persists incidents.
type Store interface {
	Record(ctx context.Context, inc Incident) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Incident, error)
}

// FromStatus maps an escalation status change to an incident. Only entries
// into ARMED, ESCALATED and RESOLVED are recorded.
func FromStatus(st escalation.Status, at time.Time) (Incident, bool) {
	if !st.Changed() {
		return Incident{}, false
	}
	var kind Kind
	switch st.State {
	case escalation.StateArmed:
		kind = KindArmed
	case escalation.StateEscalated:
		kind = KindEscalated
	case escalation.StateResolved:
		kind = KindResolved
	default:
		return Incident{}, false
	}
	return Incident{
		ID:                 uuid.New(),
		SessionID:          st.SessionID,
		UserID:             st.UserID,
		Kind:               kind,
		CrisisLevel:        st.Level.String(),
		CounselorRequested: st.CounselorRequested,
		CounselorConnected: st.CounselorConnected,
		OccurredAt:         at.UTC(),
	}, true
}
