package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the install and provisioning
// flows.
type Metrics struct {
	InstallsTotal       prometheus.Counter
	StepsTotal          *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	VendorRequestsTotal *prometheus.CounterVec
}

// New registers all collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InstallsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tryon_installs_total",
			Help: "Successful OAuth installs.",
		}),
		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tryon_provisioning_steps_total",
			Help: "Provisioning step executions by outcome.",
		}, []string{"step", "outcome"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tryon_provisioning_step_duration_seconds",
			Help:    "Provisioning step duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		VendorRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tryon_vendor_requests_total",
			Help: "Requests to the try-on vendor backend by outcome.",
		}, []string{"op", "outcome"}),
	}
}

// ObserveStep records one step execution.
func (m *Metrics) ObserveStep(step string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.StepsTotal.WithLabelValues(step, outcome).Inc()
	m.StepDuration.WithLabelValues(step).Observe(seconds)
}
