package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/exercise"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/internal/session"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// SessionService is the session manager surface exposed over REST.
type SessionService interface {
	StartSession(ctx context.Context, userID string) (session.View, error)
	Snapshot(ctx context.Context, sessionID string) (session.View, error)
	EndSession(ctx context.Context, sessionID string) error
	SubmitEmotionReading(ctx context.Context, sessionID string, r emotion.Reading) (emotion.CrisisLevel, error)
	SubmitMessage(ctx context.Context, sessionID, text string) (intent.Reply, error)
	StartExercise(ctx context.Context, sessionID, kind string) (exercise.Exercise, error)
	ConfirmSafety(ctx context.Context, sessionID string) (escalation.Status, error)
	RequestCounselorConnect(ctx context.Context, sessionID string) (escalation.Status, error)
	ConfirmCounselorConnected(ctx context.Context, sessionID string) (escalation.Status, error)
	Panic(ctx context.Context, sessionID string) (escalation.Status, error)
}

// SessionHandler serves the /sessions routes.
type SessionHandler struct {
	sessions SessionService
	logger   *logging.Logger
}

func NewSessionHandler(sessions SessionService, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Routes mounts the session endpoints on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/", h.Start)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.End)
		r.Post("/emotions", h.SubmitEmotion)
		r.Post("/messages", h.SubmitMessage)
		r.Post("/confirm-safety", h.escalation(h.sessions.ConfirmSafety))
		r.Post("/counselor/request", h.escalation(h.sessions.RequestCounselorConnect))
		r.Post("/counselor/connected", h.escalation(h.sessions.ConfirmCounselorConnected))
		r.Post("/panic", h.escalation(h.sessions.Panic))
		r.Post("/exercises/{type}", h.StartExercise)
	})
}

type startSessionRequest struct {
	UserID string `json:"user_id"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	view, err := h.sessions.StartSession(r.Context(), req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type crisisLevelResponse struct {
	SessionID   string              `json:"session_id"`
	CrisisLevel emotion.CrisisLevel `json:"crisis_level"`
}

func (h *SessionHandler) SubmitEmotion(w http.ResponseWriter, r *http.Request) {
	var reading emotion.Reading
	if err := decodeJSON(r, &reading); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sessionID := chi.URLParam(r, "id")
	level, err := h.sessions.SubmitEmotionReading(r.Context(), sessionID, reading)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, crisisLevelResponse{SessionID: sessionID, CrisisLevel: level})
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *SessionHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reply, err := h.sessions.SubmitMessage(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *SessionHandler) StartExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := h.sessions.StartExercise(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

type escalationResponse struct {
	Escalation escalation.Status `json:"escalation"`
	Warning    string            `json:"warning,omitempty"`
}

// escalation adapts one machine action. An action that does not apply to the
// current state is answered with 200 and a warning.
func (h *SessionHandler) escalation(action func(context.Context, string) (escalation.Status, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		st, err := action(r.Context(), sessionID)
		switch {
		case errors.Is(err, escalation.ErrInvalidTransition):
			h.logger.Warn("escalation action ignored", "session_id", sessionID, "path", r.URL.Path, "state", st.State, "error", err)
			writeJSON(w, http.StatusOK, escalationResponse{Escalation: st, Warning: err.Error()})
		case err != nil:
			writeError(w, h.logger, err)
		default:
			writeJSON(w, http.StatusOK, escalationResponse{Escalation: st})
		}
	}
}
