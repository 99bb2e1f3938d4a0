package escalation

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crisis-companion/internal/clock"
	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

var machineTracer = otel.Tracer("crisis/escalation")

const (
	// DefaultCountdown is how long the user has to confirm safety.
	DefaultCountdown = 60 * time.Second
	// DefaultTick is the countdown display resolution.
	DefaultTick = time.Second
)

// Options configures a Machine.
type Options struct {
	SessionID string
	UserID    string
	Countdown time.Duration
	Tick      time.Duration
	Clock     clock.Clock
	Notifier  Notifier
	// OnChange receives every transition and countdown tick. It runs while
	// the machine is locked and must not call back into the machine.
	OnChange func(Status)
	Logger   *logging.Logger
}

// Machine drives the safety countdown for one session. All methods are safe
// for concurrent use; timer callbacks are serialized with user actions.
type Machine struct {
	mu        sync.Mutex
	sessionID string
	userID    string
	countdown time.Duration
	tick      time.Duration
	clock     clock.Clock
	notifier  Notifier
	onChange  func(Status)
	logger    *logging.Logger

	state              State
	level              emotion.CrisisLevel
	remaining          int
	timer              clock.Timer
	epoch              uint64
	counselorRequested bool
	counselorConnected bool
}

// NewMachine returns a machine in IDLE.
func NewMachine(opts Options) *Machine {
	if opts.Countdown <= 0 {
		opts.Countdown = DefaultCountdown
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Machine{
		sessionID: opts.SessionID,
		userID:    opts.UserID,
		countdown: opts.Countdown,
		tick:      opts.Tick,
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		onChange:  opts.OnChange,
		logger:    opts.Logger.With("session_id", opts.SessionID, "user_id", opts.UserID),
		state:     StateIdle,
	}
}

// Status returns the current state snapshot.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked(m.state)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Arm starts a safety countdown for an elevated crisis level. From IDLE or
// RESOLVED it notifies the crisis-trigger collaborator and begins counting
// down. While a countdown is live, a higher level is recorded without
// restarting the timer; the same or a lower level is an invalid transition.
func (m *Machine) Arm(ctx context.Context, level emotion.CrisisLevel, snapshot []emotion.Reading) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !level.Elevated() {
		return m.statusLocked(m.state), invalid("arm at "+level.String(), m.state)
	}

	switch m.state {
	case StateIdle, StateResolved:
		if m.counselorConnected {
			m.logger.Info("crisis re-arm skipped, counselor engaged", "crisis_level", level.String())
			return m.statusLocked(m.state), nil
		}
	case StateArmed, StateCountingDown:
		if level > m.level {
			m.logger.Info("crisis level upgraded during countdown",
				"from_level", m.level.String(), "crisis_level", level.String())
			m.level = level
			m.emitLocked(m.state)
			return m.statusLocked(m.state), nil
		}
		return m.rejectLocked("arm")
	default:
		return m.rejectLocked("arm")
	}

	ctx, span := machineTracer.Start(ctx, "escalation.Arm")
	defer span.End()
	span.SetAttributes(
		attribute.String("crisis.session_id", m.sessionID),
		attribute.String("crisis.level", level.String()),
	)

	m.level = level
	m.counselorRequested = false
	m.transitionLocked(StateArmed)

	if err := m.notifier.NotifyCrisisTrigger(ctx, m.userID, level, snapshot); err != nil {
		span.RecordError(err)
		m.logger.Warn("crisis trigger notification failed", "error", err, "crisis_level", level.String())
	}

	m.startCountdownLocked()
	return m.statusLocked(m.state), nil
}

// ConfirmSafety resolves a live countdown. Confirming again once resolved is
// a no-op.
func (m *Machine) ConfirmSafety(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateResolved:
		return m.statusLocked(m.state), nil
	case StateArmed, StateCountingDown:
		m.resolveLocked(ctx, "user confirmed safety")
		return m.statusLocked(m.state), nil
	default:
		return m.rejectLocked("confirm safety")
	}
}

// RequestCounselor marks a counselor connection as pending. The countdown
// keeps running but is no longer shown.
func (m *Machine) RequestCounselor(_ context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateArmed, StateCountingDown:
		if !m.counselorRequested {
			m.counselorRequested = true
			m.logger.Info("counselor connection requested", "countdown_remaining", m.remaining)
			m.emitLocked(m.state)
		}
		return m.statusLocked(m.state), nil
	default:
		return m.rejectLocked("request counselor")
	}
}

// ConfirmCounselorConnected resolves a live countdown because a human is now
// engaged. Further elevated readings do not re-arm until Settle or Reset.
func (m *Machine) ConfirmCounselorConnected(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateArmed, StateCountingDown:
		m.counselorConnected = true
		m.resolveLocked(ctx, "counselor connected")
		return m.statusLocked(m.state), nil
	case StateResolved:
		if !m.counselorConnected {
			m.counselorConnected = true
			m.emitLocked(m.state)
		}
		return m.statusLocked(m.state), nil
	default:
		return m.rejectLocked("confirm counselor")
	}
}

// Settle ends a counselor-handled episode once the crisis level has fallen
// below HIGH. The counselor hold is released so a later episode can re-arm.
func (m *Machine) Settle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.counselorConnected || m.state == StateArmed || m.state == StateCountingDown {
		return
	}
	m.counselorConnected = false
	m.counselorRequested = false
	m.logger.Info("counselor hold released", "state", string(m.state))
	m.emitLocked(m.state)
}

// Panic escalates immediately from any state that has not already escalated.
func (m *Machine) Panic(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateEscalated {
		return m.statusLocked(m.state), nil
	}
	m.escalateLocked(ctx, "panic button")
	return m.statusLocked(m.state), nil
}

// Reset cancels any live countdown and returns to IDLE without notifying
// collaborators. Used when a session ends or is replaced.
func (m *Machine) Reset() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelLocked()
	m.counselorRequested = false
	m.counselorConnected = false
	m.remaining = 0
	if m.state != StateIdle {
		m.transitionLocked(StateIdle)
	}
	m.level = emotion.LevelLow
	return m.statusLocked(m.state)
}

func (m *Machine) startCountdownLocked() {
	m.cancelLocked()
	m.remaining = int(m.countdown / m.tick)
	if m.remaining < 1 {
		m.remaining = 1
	}
	m.epoch++
	epoch := m.epoch
	m.transitionLocked(StateCountingDown)
	m.timer = m.clock.AfterFunc(m.tick, func() { m.onTick(epoch) })
}

func (m *Machine) onTick(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A stale epoch means the countdown was cancelled after this callback
	// was already scheduled to run.
	if epoch != m.epoch || m.state != StateCountingDown {
		return
	}
	m.timer = nil
	m.remaining--
	if m.remaining <= 0 {
		m.escalateLocked(context.Background(), "countdown expired")
		return
	}
	m.emitLocked(m.state)
	m.timer = m.clock.AfterFunc(m.tick, func() { m.onTick(epoch) })
}

func (m *Machine) resolveLocked(ctx context.Context, reason string) {
	m.cancelLocked()
	m.remaining = 0
	m.transitionLocked(StateResolved)
	m.logger.Info("crisis resolved", "reason", reason, "crisis_level", m.level.String())

	if err := m.notifier.NotifySafetyConfirmed(ctx, m.userID); err != nil {
		m.logger.Warn("safety confirmation notification failed", "error", err)
	}
}

// escalateLocked fires the emergency notification. It runs at most once per
// entry into ESCALATED.
func (m *Machine) escalateLocked(ctx context.Context, reason string) {
	if m.state == StateEscalated {
		return
	}
	m.cancelLocked()
	m.remaining = 0
	m.transitionLocked(StateEscalated)
	m.logger.Warn("crisis escalated", "reason", reason, "crisis_level", m.level.String())

	if err := m.notifier.NotifyEscalated(ctx, m.userID, m.level); err != nil {
		m.logger.Warn("emergency escalation notification failed", "error", err)
	}
}

func (m *Machine) cancelLocked() {
	m.epoch++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) transitionLocked(next State) {
	prev := m.state
	m.state = next
	m.emitLocked(prev)
}

func (m *Machine) emitLocked(from State) {
	if m.onChange == nil {
		return
	}
	m.onChange(m.statusLocked(from))
}

func (m *Machine) rejectLocked(action string) (Status, error) {
	err := invalid(action, m.state)
	m.logger.Warn("ignored escalation action", "action", action, "state", string(m.state))
	return m.statusLocked(m.state), err
}

func (m *Machine) statusLocked(from State) Status {
	st := Status{
		SessionID:          m.sessionID,
		UserID:             m.userID,
		From:               from,
		State:              m.state,
		Level:              m.level,
		CounselorRequested: m.counselorRequested,
		CounselorConnected: m.counselorConnected,
	}
	if m.state == StateCountingDown && !m.counselorRequested {
		remaining := m.remaining
		st.CountdownRemaining = &remaining
	}
	return st
}
