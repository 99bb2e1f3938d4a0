package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// DeliveryStatus summarizes notification outcomes for the status endpoint.
type DeliveryStatus struct {
	Delivered map[string]int64 `json:"delivered"`
	Failed    map[string]int64 `json:"failed"`
	Degraded  bool             `json:"degraded"`
}

// SnapshotDelivery reads notification counters from the gatherer. Degraded is
// set when any kind has more failures than deliveries.
func SnapshotDelivery(gatherer prometheus.Gatherer) DeliveryStatus {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	out := DeliveryStatus{
		Delivered: map[string]int64{},
		Failed:    map[string]int64{},
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return out
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == NotificationsMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return out
	}

	for _, metric := range family.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		kind := labelValue(metric, "kind")
		count := int64(metric.GetCounter().GetValue())
		switch labelValue(metric, "status") {
		case "delivered":
			out.Delivered[kind] += count
		case "failed":
			out.Failed[kind] += count
		}
	}
	for kind, failed := range out.Failed {
		if failed > out.Delivered[kind] {
			out.Degraded = true
		}
	}
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
