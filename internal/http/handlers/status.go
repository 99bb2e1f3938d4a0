package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/crisis-companion/internal/observability/metrics"
)

// StatusHandler reports whether collaborator notifications are getting through.
type StatusHandler struct {
	gatherer prometheus.Gatherer
}

func NewStatusHandler(gatherer prometheus.Gatherer) *StatusHandler {
	return &StatusHandler{gatherer: gatherer}
}

type statusResponse struct {
	Status        string                 `json:"status"`
	Notifications metrics.DeliveryStatus `json:"notifications"`
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	delivery := metrics.SnapshotDelivery(h.gatherer)
	status := "ok"
	if delivery.Degraded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status, Notifications: delivery})
}
