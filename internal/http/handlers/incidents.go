package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crisis-companion/internal/incidents"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// IncidentsHandler lists a user's recorded crisis incidents for admins.
type IncidentsHandler struct {
	store  incidents.Store
	logger *logging.Logger
}

func NewIncidentsHandler(store incidents.Store, logger *logging.Logger) *IncidentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &IncidentsHandler{store: store, logger: logger}
}

type incidentsResponse struct {
	UserID    string               `json:"user_id"`
	Incidents []incidents.Incident `json:"incidents"`
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := incidents.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, h.logger, incidents.ErrInvalidLimit)
			return
		}
		limit = n
	}
	list, err := h.store.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []incidents.Incident{}
	}
	writeJSON(w, http.StatusOK, incidentsResponse{UserID: userID, Incidents: list})
}
