package session

import (
	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/intent"
)

// Listener receives the outbound decisions of a session. Calls happen while
// the session is locked, in the order the decisions were made; implementations
// must return quickly and must not call back into the Manager.
type Listener interface {
	CrisisLevelChanged(sessionID string, level emotion.CrisisLevel)
	Reply(sessionID string, reply intent.Reply)
	EscalationStateChanged(sessionID string, status escalation.Status)
}

// Listeners fans every event out to each listener in order.
type Listeners []Listener

func (ls Listeners) CrisisLevelChanged(sessionID string, level emotion.CrisisLevel) {
	for _, l := range ls {
		if l != nil {
			l.CrisisLevelChanged(sessionID, level)
		}
	}
}

func (ls Listeners) Reply(sessionID string, reply intent.Reply) {
	for _, l := range ls {
		if l != nil {
			l.Reply(sessionID, reply)
		}
	}
}

func (ls Listeners) EscalationStateChanged(sessionID string, status escalation.Status) {
	for _, l := range ls {
		if l != nil {
			l.EscalationStateChanged(sessionID, status)
		}
	}
}
