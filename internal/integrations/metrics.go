package integrations

import "github.com/prometheus/client_golang/prometheus"

// dispatchFailures counts failed outbound dispatches by integration name.
// Dispatcher failures never surface to the user, so this counter (plus the
// error logs) is the operator's only signal.
var dispatchFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "helpdesk_integration_dispatch_failures_total",
		Help: "Total number of failed outbound integration dispatches.",
	},
	[]string{"integration"},
)

func init() {
	prometheus.MustRegister(dispatchFailures)
}
