package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/history"
	"github.com/wolfman30/crisis-companion/internal/session"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// HistoryReader reads the mirrored buffers of a session.
type HistoryReader interface {
	LoadTurns(ctx context.Context, sessionID string, limit int64) ([]history.Turn, error)
	LoadEmotions(ctx context.Context, sessionID string, limit int64) ([]emotion.Reading, error)
}

// HistoryHandler serves a session's mirrored history for review, including
// sessions this process no longer holds.
type HistoryHandler struct {
	reader HistoryReader
	logger *logging.Logger
}

func NewHistoryHandler(reader HistoryReader, logger *logging.Logger) *HistoryHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryHandler{reader: reader, logger: logger}
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Turns     []history.Turn    `json:"turns"`
	Emotions  []emotion.Reading `json:"emotions"`
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	turns, err := h.reader.LoadTurns(r.Context(), sessionID, 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	readings, err := h.reader.LoadEmotions(r.Context(), sessionID, 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// Exported or expired sessions leave nothing behind.
	if len(turns) == 0 && len(readings) == 0 {
		writeError(w, h.logger, session.ErrNotFound)
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}
	if readings == nil {
		readings = []emotion.Reading{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: turns, Emotions: readings})
}
