package webchat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/events"
	"github.com/wolfman30/crisis-companion/internal/exercise"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/internal/session"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// Sessions is the part of the session manager a live socket drives.
type Sessions interface {
	Snapshot(ctx context.Context, sessionID string) (session.View, error)
	SubmitEmotionReading(ctx context.Context, sessionID string, r emotion.Reading) (emotion.CrisisLevel, error)
	SubmitMessage(ctx context.Context, sessionID, text string) (intent.Reply, error)
	StartExercise(ctx context.Context, sessionID, kind string) (exercise.Exercise, error)
	ConfirmSafety(ctx context.Context, sessionID string) (escalation.Status, error)
	RequestCounselorConnect(ctx context.Context, sessionID string) (escalation.Status, error)
	ConfirmCounselorConnected(ctx context.Context, sessionID string) (escalation.Status, error)
	Panic(ctx context.Context, sessionID string) (escalation.Status, error)
}

// Subscriber hands out per-session event streams.
type Subscriber interface {
	Subscribe(sessionID string, buffer int) (<-chan events.Envelope, func())
}

// Inbound action types.
const (
	ActionPing               = "ping"
	ActionMessage            = "message"
	ActionEmotion            = "emotion"
	ActionConfirmSafety      = "confirm_safety"
	ActionCounselorRequest   = "counselor_request"
	ActionCounselorConnected = "counselor_connected"
	ActionPanic              = "panic"
	ActionExercise           = "exercise"
)

// InboundMessage is what the client sends.
type InboundMessage struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Reading  *emotion.Reading `json:"reading,omitempty"`
	Exercise string           `json:"exercise,omitempty"`
}

// OutboundMessage is what we send to the client.
type OutboundMessage struct {
	Type        string               `json:"type"` // "snapshot", "event", "ack", "pong", "error"
	Action      string               `json:"action,omitempty"`
	SessionID   string               `json:"session_id,omitempty"`
	Warning     string               `json:"warning,omitempty"`
	Error       string               `json:"error,omitempty"`
	Snapshot    *session.View        `json:"snapshot,omitempty"`
	Event       *events.Envelope     `json:"event,omitempty"`
	CrisisLevel *emotion.CrisisLevel `json:"crisis_level,omitempty"`
	Escalation  *escalation.Status   `json:"escalation,omitempty"`
	Exercise    *exercise.Exercise   `json:"exercise,omitempty"`
}

// Handler streams session events over a WebSocket and accepts the same
// actions as the REST surface.
type Handler struct {
	sessions Sessions
	hub      Subscriber
	logger   *logging.Logger
}

func NewHandler(sessions Sessions, hub Subscriber, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sessions: sessions, hub: hub, logger: logger}
}

// HandleStream upgrades /sessions/{id}/stream to a WebSocket.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn, sessionID)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn, sessionID string) {
	// Subscribe first so the stream covers everything after the snapshot.
	stream, cancel := h.hub.Subscribe(sessionID, 0)
	defer cancel()

	view, err := h.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
		return
	}
	if err := websocket.JSON.Send(conn, OutboundMessage{Type: "snapshot", SessionID: sessionID, Snapshot: &view}); err != nil {
		return
	}

	h.logger.Info("webchat: stream opened", "session_id", sessionID)

	replies := make(chan OutboundMessage)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer close(done)
	go func() {
		defer close(writerDone)
		if err := h.writeLoop(conn, sessionID, stream, replies, done); err != nil {
			h.logger.Debug("webchat: write failed", "session_id", sessionID, "error", err)
			_ = conn.Close()
		}
	}()

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: stream closed", "session_id", sessionID, "error", err)
			return
		}
		out := h.handle(ctx, sessionID, msg)
		select {
		case replies <- out:
		case <-writerDone:
			return
		}
	}
}

// writeLoop is the only writer on conn. Events published while an action ran
// are already queued on stream when its reply arrives, so they are flushed
// before the reply.
func (h *Handler) writeLoop(conn *websocket.Conn, sessionID string, stream <-chan events.Envelope, replies <-chan OutboundMessage, done <-chan struct{}) error {
	sendEvent := func(env events.Envelope) error {
		return websocket.JSON.Send(conn, OutboundMessage{Type: "event", SessionID: sessionID, Event: &env})
	}
	for {
		select {
		case <-done:
			return nil
		case env, ok := <-stream:
			if !ok {
				return nil
			}
			if err := sendEvent(env); err != nil {
				return err
			}
		case out := <-replies:
		flush:
			for {
				select {
				case env, ok := <-stream:
					if !ok {
						break flush
					}
					if err := sendEvent(env); err != nil {
						return err
					}
				default:
					break flush
				}
			}
			if err := websocket.JSON.Send(conn, out); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) handle(ctx context.Context, sessionID string, msg InboundMessage) OutboundMessage {
	out := OutboundMessage{Type: "ack", Action: msg.Type, SessionID: sessionID}
	var err error

	switch msg.Type {
	case ActionPing:
		return OutboundMessage{Type: "pong", SessionID: sessionID}
	case ActionMessage:
		_, err = h.sessions.SubmitMessage(ctx, sessionID, strings.TrimSpace(msg.Text))
	case ActionEmotion:
		if msg.Reading == nil {
			return errorMessage(sessionID, msg.Type, "reading required")
		}
		var level emotion.CrisisLevel
		level, err = h.sessions.SubmitEmotionReading(ctx, sessionID, *msg.Reading)
		out.CrisisLevel = &level
	case ActionExercise:
		var ex exercise.Exercise
		ex, err = h.sessions.StartExercise(ctx, sessionID, msg.Exercise)
		out.Exercise = &ex
	case ActionConfirmSafety:
		out.Escalation, err = status(h.sessions.ConfirmSafety(ctx, sessionID))
	case ActionCounselorRequest:
		out.Escalation, err = status(h.sessions.RequestCounselorConnect(ctx, sessionID))
	case ActionCounselorConnected:
		out.Escalation, err = status(h.sessions.ConfirmCounselorConnected(ctx, sessionID))
	case ActionPanic:
		out.Escalation, err = status(h.sessions.Panic(ctx, sessionID))
	default:
		return errorMessage(sessionID, msg.Type, "unknown action")
	}

	switch {
	case err == nil:
		return out
	case errors.Is(err, escalation.ErrInvalidTransition):
		out.Warning = err.Error()
		return out
	default:
		h.logger.Warn("webchat: action failed", "session_id", sessionID, "action", msg.Type, "error", err)
		return errorMessage(sessionID, msg.Type, err.Error())
	}
}

func status(st escalation.Status, err error) (*escalation.Status, error) {
	return &st, err
}

func errorMessage(sessionID, action, text string) OutboundMessage {
	return OutboundMessage{Type: "error", Action: action, SessionID: sessionID, Error: text}
}
