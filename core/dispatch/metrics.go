package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	gatewaySuccess      prometheus.Counter
	gatewayFailure      prometheus.Counter
	activeNotifications prometheus.Gauge
)

func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Gauge) {
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_send_success_total",
			Help: "Number of provider notifications accepted by the gateway",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_send_failure_total",
			Help: "Number of provider notifications the gateway failed to deliver",
		},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_active_notifications",
			Help: "Notifications currently awaiting a provider response",
		},
	)
	return suc, fail, active
}

func init() {
	gatewaySuccess, gatewayFailure, activeNotifications = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used. Already registered
// collectors are reused.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{gatewaySuccess, gatewayFailure, activeNotifications} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
