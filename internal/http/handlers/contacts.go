package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// ContactsHandler manages a user's emergency contacts for admins.
type ContactsHandler struct {
	store  contacts.Store
	logger *logging.Logger
}

func NewContactsHandler(store contacts.Store, logger *logging.Logger) *ContactsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactsHandler{store: store, logger: logger}
}

// Routes mounts the handler under /admin/users/{userID}/contacts.
func (h *ContactsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Put("/{contactID}", h.Save)
	r.Delete("/{contactID}", h.Delete)
}

func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []contacts.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": list})
}

// Save creates a contact on POST and replaces one on PUT. The user and
// contact IDs always come from the path.
func (h *ContactsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var c contacts.Contact
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	c.UserID = chi.URLParam(r, "userID")
	c.ID = chi.URLParam(r, "contactID")
	status := http.StatusOK
	if c.ID == "" {
		status = http.StatusCreated
	}
	if err := h.store.Upsert(r.Context(), &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("emergency contact saved", "user_id", c.UserID, "contact_id", c.ID)
	writeJSON(w, status, c)
}

func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.store.Delete(r.Context(), userID, chi.URLParam(r, "contactID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
