package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crisis-companion/internal/clock"
	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/exercise"
	"github.com/wolfman30/crisis-companion/internal/history"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/internal/observability/metrics"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

var sessionTracer = otel.Tracer("crisis/session")

const contextTurns = 3

// TranscriptExporter stores the transcript of an ended session.
type TranscriptExporter interface {
	Export(ctx context.Context, t history.Transcript) error
}

// Config holds per-session tunables.
type Config struct {
	Countdown time.Duration
	Tick      time.Duration
}

// Deps are the collaborators of a Manager. Only Classifier is required.
type Deps struct {
	Classifier *intent.Classifier
	Notifier   escalation.Notifier
	Clock      clock.Clock
	Listener   Listener
	Archive    history.Archive
	Exporter   TranscriptExporter
	Metrics    *metrics.CrisisMetrics
	Logger     *logging.Logger
}

// View is a read-only snapshot of a session.
type View struct {
	SessionID   string              `json:"session_id"`
	UserID      string              `json:"user_id"`
	CreatedAt   time.Time           `json:"created_at"`
	CrisisLevel emotion.CrisisLevel `json:"crisis_level"`
	Escalation  escalation.Status   `json:"escalation"`
	Turns       []history.Turn      `json:"turns"`
	Emotions    []emotion.Reading   `json:"emotions"`
}

type session struct {
	mu        sync.Mutex
	id        string
	userID    string
	createdAt time.Time
	buffer    *history.Buffer
	machine   *escalation.Machine
	ended     bool
}

// Manager owns every live session. Each session's history and escalation
// state are mutated only while holding that session's lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	byUser   map[string]string

	cfg        Config
	classifier *intent.Classifier
	notifier   escalation.Notifier
	clock      clock.Clock
	listener   Listener
	archive    history.Archive
	exporter   TranscriptExporter
	metrics    *metrics.CrisisMetrics
	logger     *logging.Logger
}

// NewManager wires a Manager. Missing optional dependencies get no-op defaults.
func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = intent.NewClassifier(deps.Logger)
	}
	if deps.Notifier == nil {
		deps.Notifier = escalation.NopNotifier{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Listener == nil {
		deps.Listener = Listeners(nil)
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = escalation.DefaultCountdown
	}
	if cfg.Tick <= 0 {
		cfg.Tick = escalation.DefaultTick
	}
	return &Manager{
		sessions:   make(map[string]*session),
		byUser:     make(map[string]string),
		cfg:        cfg,
		classifier: deps.Classifier,
		notifier:   deps.Notifier,
		clock:      deps.Clock,
		listener:   deps.Listener,
		archive:    deps.Archive,
		exporter:   deps.Exporter,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// StartSession opens a fresh session for userID. A previous session of the
// same user is ended first, cancelling any live countdown.
func (m *Manager) StartSession(ctx context.Context, userID string) (View, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return View{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}

	now := m.clock.Now().UTC()
	s := &session{
		id:        newSessionID(userID, now),
		userID:    userID,
		createdAt: now,
		buffer:    history.NewBuffer(),
	}
	s.machine = escalation.NewMachine(escalation.Options{
		SessionID: s.id,
		UserID:    userID,
		Countdown: m.cfg.Countdown,
		Tick:      m.cfg.Tick,
		Clock:     m.clock,
		Notifier:  m.notifier,
		OnChange:  m.escalationObserver(s.id),
		Logger:    m.logger,
	})

	m.mu.Lock()
	var prev *session
	if prevID, ok := m.byUser[userID]; ok {
		prev = m.sessions[prevID]
		delete(m.sessions, prevID)
	}
	m.sessions[s.id] = s
	m.byUser[userID] = s.id
	m.mu.Unlock()

	if prev != nil {
		m.logger.Info("replacing active session", "user_id", userID, "previous_session_id", prev.id)
		m.finish(ctx, prev)
	}

	m.metrics.SessionStarted()
	m.logger.Info("session started", "session_id", s.id, "user_id", userID)
	return m.view(s), nil
}

// SubmitEmotionReading appends a sensor reading and re-derives the crisis
// level. HIGH or SEVERE arms the escalation machine.
func (m *Manager) SubmitEmotionReading(ctx context.Context, sessionID string, r emotion.Reading) (emotion.CrisisLevel, error) {
	s, err := m.lock(sessionID)
	if err != nil {
		return emotion.LevelLow, err
	}
	defer s.mu.Unlock()

	window := emotion.DefaultThresholds.Window
	before := emotion.ClassifyCrisis(s.buffer.RecentEmotions(window))

	if r.Timestamp.IsZero() {
		r.Timestamp = m.clock.Now().UTC()
	}
	if err := s.buffer.AppendEmotion(r); err != nil {
		m.metrics.ObserveReading(false)
		m.logger.Warn("emotion reading rejected", "session_id", sessionID, "error", err)
		return before, fmt.Errorf("session: %w", err)
	}
	m.metrics.ObserveReading(true)
	m.mirrorEmotion(ctx, sessionID, r)

	recent := s.buffer.RecentEmotions(window)
	level := emotion.ClassifyCrisis(recent)
	if level != before {
		m.metrics.ObserveLevelChange(level.String())
		m.listener.CrisisLevelChanged(sessionID, level)
	}

	if !level.Elevated() {
		s.machine.Settle()
		return level, nil
	}
	st := s.machine.Status()
	switch st.State {
	case escalation.StateIdle, escalation.StateResolved:
		m.arm(ctx, s, level, recent)
	case escalation.StateArmed, escalation.StateCountingDown:
		// Only a level above the one the countdown was armed at is news.
		if level > st.Level {
			m.arm(ctx, s, level, recent)
		}
	}
	return level, nil
}

func (m *Manager) arm(ctx context.Context, s *session, level emotion.CrisisLevel, snapshot []emotion.Reading) {
	if _, err := s.machine.Arm(ctx, level, snapshot); err != nil && !errors.Is(err, escalation.ErrInvalidTransition) {
		m.logger.Error("arm escalation failed", "session_id", s.id, "error", err)
	}
}

// SubmitMessage records the user's message, classifies it and records the
// assistant reply.
func (m *Manager) SubmitMessage(ctx context.Context, sessionID, text string) (intent.Reply, error) {
	s, err := m.lock(sessionID)
	if err != nil {
		return intent.Reply{}, err
	}
	defer s.mu.Unlock()

	ctx, span := sessionTracer.Start(ctx, "session.SubmitMessage")
	defer span.End()
	span.SetAttributes(attribute.String("crisis.session_id", sessionID))

	recent := s.buffer.RecentUserTexts(contextTurns)
	m.appendTurn(ctx, s, history.Turn{Text: text, Sender: history.SenderUser})

	reply := m.classifier.Classify(ctx, intent.Request{Message: text, RecentUserTurns: recent})
	m.appendTurn(ctx, s, history.Turn{
		Text:       reply.Text,
		Sender:     history.SenderAssistant,
		EmotionTag: reply.EmotionTag,
	})

	m.metrics.ObserveReply(reply.Category, reply.CrisisKeyword)
	if reply.CrisisKeyword {
		m.logger.Warn("crisis language in message", "session_id", sessionID, "user_id", s.userID)
	}
	m.listener.Reply(sessionID, reply)
	return reply, nil
}

// StartExercise returns the requested exercise and records its introduction
// as an assistant turn. Escalation state is untouched.
func (m *Manager) StartExercise(ctx context.Context, sessionID, kind string) (exercise.Exercise, error) {
	ex, err := exercise.Lookup(kind)
	if err != nil {
		return exercise.Exercise{}, fmt.Errorf("session: %w", err)
	}
	s, err := m.lock(sessionID)
	if err != nil {
		return exercise.Exercise{}, err
	}
	defer s.mu.Unlock()

	m.appendTurn(ctx, s, history.Turn{Text: ex.Intro(), Sender: history.SenderAssistant, EmotionTag: emotion.Neutral})
	m.logger.Info("exercise started", "session_id", sessionID, "exercise", ex.ID)
	return ex, nil
}

// ConfirmSafety resolves a live countdown. An ErrInvalidTransition result
// leaves the session unchanged.
func (m *Manager) ConfirmSafety(ctx context.Context, sessionID string) (escalation.Status, error) {
	return m.escalationAction(sessionID, func(mc *escalation.Machine) (escalation.Status, error) {
		return mc.ConfirmSafety(ctx)
	})
}

// RequestCounselorConnect hides the countdown while a counselor is reached.
func (m *Manager) RequestCounselorConnect(ctx context.Context, sessionID string) (escalation.Status, error) {
	return m.escalationAction(sessionID, func(mc *escalation.Machine) (escalation.Status, error) {
		return mc.RequestCounselor(ctx)
	})
}

// ConfirmCounselorConnected resolves the countdown once a counselor joins.
func (m *Manager) ConfirmCounselorConnected(ctx context.Context, sessionID string) (escalation.Status, error) {
	return m.escalationAction(sessionID, func(mc *escalation.Machine) (escalation.Status, error) {
		return mc.ConfirmCounselorConnected(ctx)
	})
}

// Panic escalates immediately.
func (m *Manager) Panic(ctx context.Context, sessionID string) (escalation.Status, error) {
	return m.escalationAction(sessionID, func(mc *escalation.Machine) (escalation.Status, error) {
		return mc.Panic(ctx)
	})
}

func (m *Manager) escalationAction(sessionID string, fn func(*escalation.Machine) (escalation.Status, error)) (escalation.Status, error) {
	s, err := m.lock(sessionID)
	if err != nil {
		return escalation.Status{}, err
	}
	defer s.mu.Unlock()
	return fn(s.machine)
}

// EndSession cancels any live countdown, drops the in-memory buffers and
// exports the transcript when an exporter is configured.
func (m *Manager) EndSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		if m.byUser[s.userID] == sessionID {
			delete(m.byUser, s.userID)
		}
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.finish(ctx, s)
	return nil
}

// Snapshot returns the current view of a session.
func (m *Manager) Snapshot(_ context.Context, sessionID string) (View, error) {
	s, err := m.lock(sessionID)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	return m.viewLocked(s), nil
}

// Close ends every live session. Used on shutdown.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*session)
	m.byUser = make(map[string]string)
	m.mu.Unlock()

	for _, s := range all {
		m.finish(ctx, s)
	}
}

func (m *Manager) finish(ctx context.Context, s *session) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.machine.Reset()
	transcript := history.Transcript{
		SessionID: s.id,
		UserID:    s.userID,
		StartedAt: s.createdAt,
		EndedAt:   m.clock.Now().UTC(),
		Turns:     s.buffer.RecentTurns(s.buffer.TurnCount()),
		Emotions:  s.buffer.RecentEmotions(s.buffer.EmotionCount()),
	}
	s.buffer.Reset()
	s.mu.Unlock()

	m.metrics.SessionEnded()
	m.logger.Info("session ended", "session_id", s.id, "user_id", s.userID, "turn_count", len(transcript.Turns))

	// Without an exported transcript the mirror is the only copy left; it
	// then lives until its TTL.
	if m.exporter == nil {
		return
	}
	if err := m.exporter.Export(ctx, transcript); err != nil {
		m.logger.Warn("transcript export failed", "session_id", s.id, "error", err)
		return
	}
	if m.archive != nil {
		if err := m.archive.Drop(ctx, s.id); err != nil {
			m.logger.Warn("history mirror drop failed", "session_id", s.id, "error", err)
		}
	}
}

// lock returns the live session with its lock held.
func (m *Manager) lock(sessionID string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) appendTurn(ctx context.Context, s *session, t history.Turn) {
	t.ID = uuid.NewString()
	t.SessionID = s.id
	t.Timestamp = m.clock.Now().UTC()
	s.buffer.AppendTurn(t)
	if m.archive == nil {
		return
	}
	if err := m.archive.SaveTurn(ctx, s.id, t); err != nil {
		m.logger.Warn("turn mirror failed", "session_id", s.id, "error", err)
	}
}

func (m *Manager) mirrorEmotion(ctx context.Context, sessionID string, r emotion.Reading) {
	if m.archive == nil {
		return
	}
	if err := m.archive.SaveEmotion(ctx, sessionID, r); err != nil {
		m.logger.Warn("emotion mirror failed", "session_id", sessionID, "error", err)
	}
}

func (m *Manager) escalationObserver(sessionID string) func(escalation.Status) {
	return func(st escalation.Status) {
		if st.Changed() {
			m.metrics.ObserveTransition(string(st.From), string(st.State))
		}
		m.listener.EscalationStateChanged(sessionID, st)
	}
}

func (m *Manager) view(s *session) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.viewLocked(s)
}

func (m *Manager) viewLocked(s *session) View {
	emotions := s.buffer.RecentEmotions(s.buffer.EmotionCount())
	return View{
		SessionID:   s.id,
		UserID:      s.userID,
		CreatedAt:   s.createdAt,
		CrisisLevel: emotion.ClassifyCrisis(emotions),
		Escalation:  s.machine.Status(),
		Turns:       s.buffer.RecentTurns(s.buffer.TurnCount()),
		Emotions:    emotions,
	}
}

// newSessionID builds session_<unix-ms>_<user>_<8 hex>.
func newSessionID(userID string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, userID)
	return fmt.Sprintf("session_%d_%s_%s", now.UnixMilli(), safe, uuid.NewString()[:8])
}
