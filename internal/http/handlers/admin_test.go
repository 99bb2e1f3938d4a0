package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/internal/incidents"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

type failingIncidentStore struct{}

func (failingIncidentStore) Record(context.Context, incidents.Incident) error { return nil }

func (failingIncidentStore) ListByUser(context.Context, string, int) ([]incidents.Incident, error) {
	return nil, errors.New("db down")
}

func incidentsRouter(store incidents.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/users/{userID}/incidents", NewIncidentsHandler(store, logging.Discard()).List)
	return r
}

func TestIncidentsHandler_List(t *testing.T) {
	store := incidents.NewMemoryStore()
	base := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	for i, kind := range []incidents.Kind{incidents.KindArmed, incidents.KindEscalated} {
		require.NoError(t, store.Record(context.Background(), incidents.Incident{
			ID:          uuid.New(),
			SessionID:   "s1",
			UserID:      "u1",
			Kind:        kind,
			CrisisLevel: "HIGH",
			OccurredAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	h := incidentsRouter(store)

	rec := doJSON(t, h, http.MethodGet, "/admin/users/u1/incidents?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp incidentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Incidents, 1)
	assert.Equal(t, incidents.KindEscalated, resp.Incidents[0].Kind)

	rec = doJSON(t, h, http.MethodGet, "/admin/users/nobody/incidents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"nobody","incidents":[]}`, rec.Body.String())
}

func TestIncidentsHandler_Errors(t *testing.T) {
	rec := doJSON(t, incidentsRouter(incidents.NewMemoryStore()), http.MethodGet, "/admin/users/u1/incidents?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, incidentsRouter(failingIncidentStore{}), http.MethodGet, "/admin/users/u1/incidents", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestContactsHandler_CRUD(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/admin/users/{userID}/contacts", NewContactsHandler(contacts.NewMemoryStore(), logging.Discard()).Routes)

	rec := doJSON(t, r, http.MethodPost, "/admin/users/u1/contacts", map[string]any{
		"name":  "Sam",
		"phone": "+15550001111",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created contacts.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, []contacts.Channel{contacts.ChannelSMS}, created.Channels)

	rec = doJSON(t, r, http.MethodPut, "/admin/users/u1/contacts/"+created.ID, map[string]any{
		"name":  "Sam",
		"phone": "+15550001111",
		"email": "sam@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/admin/users/u1/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Contacts []contacts.Contact `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Contacts, 1)
	assert.Equal(t, "sam@example.com", list.Contacts[0].Email)

	rec = doJSON(t, r, http.MethodDelete, "/admin/users/u1/contacts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/admin/users/u1/contacts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactsHandler_RejectsUnreachableContact(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/admin/users/{userID}/contacts", NewContactsHandler(contacts.NewMemoryStore(), logging.Discard()).Routes)

	rec := doJSON(t, r, http.MethodPost, "/admin/users/u1/contacts", map[string]any{"name": "Sam"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
