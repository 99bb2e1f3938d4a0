package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "crisis"

	// NotificationsMetric is the fully-qualified notification counter name.
	NotificationsMetric = "crisis_escalation_notifications_total"
)

// CrisisMetrics exposes counters for session, classification and escalation flows.
type CrisisMetrics struct {
	readingsTotal      *prometheus.CounterVec
	levelChangesTotal  *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	repliesTotal       *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

func NewCrisisMetrics(reg prometheus.Registerer) *CrisisMetrics {
	m := &CrisisMetrics{
		readingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "emotion_readings_total",
			Help:      "Emotion readings submitted, by acceptance",
		}, []string{"status"}),
		levelChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "level_changes_total",
			Help:      "Crisis level changes, by new level",
		}, []string{"level"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "transitions_total",
			Help:      "Escalation state transitions",
		}, []string{"from", "to"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "notifications_total",
			Help:      "Collaborator notifications, by kind and delivery status",
		}, []string{"kind", "status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "replies_total",
			Help:      "Scripted replies, by category",
		}, []string{"category", "crisis_keyword"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.readingsTotal,
		m.levelChangesTotal,
		m.transitionsTotal,
		m.notificationsTotal,
		m.repliesTotal,
		m.activeSessions,
	)
	return m
}

func (m *CrisisMetrics) ObserveReading(accepted bool) {
	if m == nil {
		return
	}
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	m.readingsTotal.WithLabelValues(status).Inc()
}

func (m *CrisisMetrics) ObserveLevelChange(level string) {
	if m == nil {
		return
	}
	m.levelChangesTotal.WithLabelValues(level).Inc()
}

func (m *CrisisMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

// ObserveNotification records a delivery outcome; a nil err counts as delivered.
func (m *CrisisMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "delivered"
	if err != nil {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *CrisisMetrics) ObserveReply(category string, crisisKeyword bool) {
	if m == nil {
		return
	}
	label := "false"
	if crisisKeyword {
		label = "true"
	}
	m.repliesTotal.WithLabelValues(category, label).Inc()
}

func (m *CrisisMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *CrisisMetrics) SessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
