package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/ngantchou/warap-ai-sub004/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	outcomes      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	runs          *prometheus.CounterVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Already
// registered collectors are reused.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_outcomes_total",
		Help: "Total number of notification outcomes",
	}, []string{"service_type", "state"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Total number of provider notifications sent",
	}, []string{"service_type"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_response_latency_seconds",
		Help:    "Time between notification send and provider reply",
		Buckets: []float64{30, 60, 120, 300, 600, 900},
	}, []string{"service_type", "accepted"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_runs_total",
		Help: "Total number of completed dispatch runs",
	}, []string{"outcome"})

	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(notifications); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			notifications = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{outcomes: outcomes, notifications: notifications, latency: latency, runs: runs}, nil
}

// RecordDispatchOutcome increments the counter for each outcome.
func (s *PromSink) RecordDispatchOutcome(res []coremetrics.DispatchOutcome) error {
	for _, r := range res {
		s.outcomes.WithLabelValues(r.ServiceType, r.State).Inc()
	}
	return nil
}

// RecordNotification counts outbound notifications.
func (s *PromSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	s.notifications.WithLabelValues(ev.ServiceType).Inc()
	return nil
}

// RecordResponseLatency records the reply latency histogram.
func (s *PromSink) RecordResponseLatency(recs []coremetrics.ResponseLatency) error {
	for _, r := range recs {
		s.latency.WithLabelValues(r.ServiceType, strconv.FormatBool(r.Accepted)).Observe(r.Latency.Seconds())
	}
	return nil
}

// RecordDispatchRun counts completed runs by outcome.
func (s *PromSink) RecordDispatchRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Outcome).Inc()
	return nil
}
