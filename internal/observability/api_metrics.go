package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics counts rule decisions and feed fan-out. A nil *APIMetrics is
// valid and records nothing.
type APIMetrics struct {
	accessDenied        *prometheus.CounterVec
	followRejected      *prometheus.CounterVec
	followCreated       prometheus.Counter
	feedFanout          *prometheus.CounterVec
	feedFanoutLatency   prometheus.Histogram
	kafkaPublishTotal   *prometheus.CounterVec
	kafkaConsumeTotal   *prometheus.CounterVec
	kafkaConsumeLatency *prometheus.HistogramVec
}

func NewAPIMetrics(registry *prometheus.Registry, serviceName string) *APIMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}

	constLabels := prometheus.Labels{}
	if serviceName != "" {
		constLabels["service"] = serviceName
	}

	accessDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "policy",
		Name:        "access_denied_total",
		Help:        "Mutating requests rejected because the requester is not the owner.",
		ConstLabels: constLabels,
	}, []string{"resource", "method"})

	followRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "policy",
		Name:        "follow_rejected_total",
		Help:        "Follow requests rejected by validation.",
		ConstLabels: constLabels,
	}, []string{"reason"})

	followCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "follow",
		Name:        "created_total",
		Help:        "Follow relationships created.",
		ConstLabels: constLabels,
	})

	feedFanout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "feed",
		Name:        "fanout_total",
		Help:        "Post fan-out attempts into follower inboxes.",
		ConstLabels: constLabels,
	}, []string{"result"})

	feedFanoutLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "yatube",
		Subsystem:   "feed",
		Name:        "fanout_duration_seconds",
		Help:        "Time spent pushing one post into follower inboxes.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	})

	kafkaPublishTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "kafka",
		Name:        "publish_total",
		Help:        "Total kafka publish attempts.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	kafkaConsumeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "yatube",
		Subsystem:   "kafka",
		Name:        "consume_total",
		Help:        "Total kafka consume results.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	kafkaConsumeLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "yatube",
		Subsystem:   "kafka",
		Name:        "consume_duration_seconds",
		Help:        "Kafka consume handling duration in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	registry.MustRegister(accessDenied, followRejected, followCreated, feedFanout, feedFanoutLatency,
		kafkaPublishTotal, kafkaConsumeTotal, kafkaConsumeLatency)

	return &APIMetrics{
		accessDenied:        accessDenied,
		followRejected:      followRejected,
		followCreated:       followCreated,
		feedFanout:          feedFanout,
		feedFanoutLatency:   feedFanoutLatency,
		kafkaPublishTotal:   kafkaPublishTotal,
		kafkaConsumeTotal:   kafkaConsumeTotal,
		kafkaConsumeLatency: kafkaConsumeLatency,
	}
}

// ObserveAccessDenied records one owner check refusal.
func (m *APIMetrics) ObserveAccessDenied(resource, method string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(resource, method).Inc()
}

// ObserveFollow records the outcome of a follow request: "created" or a
// rejection reason such as "self", "duplicate" or "unknown_user".
func (m *APIMetrics) ObserveFollow(outcome string) {
	if m == nil {
		return
	}
	if outcome == "created" {
		m.followCreated.Inc()
		return
	}
	m.followRejected.WithLabelValues(outcome).Inc()
}

func (m *APIMetrics) ObserveFanout(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.feedFanout.WithLabelValues(result).Inc()
	m.feedFanoutLatency.Observe(duration.Seconds())
}

func (m *APIMetrics) ObserveKafkaPublish(topic, result string) {
	if m == nil {
		return
	}
	m.kafkaPublishTotal.WithLabelValues(topic, result).Inc()
}

func (m *APIMetrics) ObserveKafkaConsume(topic, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.kafkaConsumeTotal.WithLabelValues(topic, result).Inc()
	m.kafkaConsumeLatency.WithLabelValues(topic, result).Observe(duration.Seconds())
}
