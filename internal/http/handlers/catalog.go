package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crisis-companion/internal/exercise"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// CatalogHandler serves the static hotline and exercise lists.
type CatalogHandler struct {
	logger *logging.Logger
}

func NewCatalogHandler(logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{logger: logger}
}

func (h *CatalogHandler) CrisisResources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"resources": intent.CrisisResources()})
}

func (h *CatalogHandler) ListExercises(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercise.All()})
}

// GetExercise accepts a catalog ID or a category exercise type such as "breathing".
func (h *CatalogHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := exercise.Lookup(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}
