package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Monitor collects and provides metrics for the console.
type Monitor struct {
	PollsTotal            prometheus.Counter
	PollFailures          prometheus.Counter
	PollsSkipped          prometheus.Counter
	NotificationsEmitted  prometheus.Counter
	UnreadNotifications   prometheus.Gauge
	StatusUpdates         *prometheus.CounterVec
	StaleResponsesDropped prometheus.Counter
	FetchesTotal          prometheus.Counter
}

// NewMonitor creates a monitor registered against the default
// Prometheus registry.
func NewMonitor() *Monitor {
	return newMonitor(prometheus.DefaultRegisterer)
}

// NewTestMonitor creates a monitor on a private registry so tests can
// construct monitors repeatedly without duplicate-registration panics.
func NewTestMonitor() *Monitor {
	return newMonitor(prometheus.NewRegistry())
}

func newMonitor(reg prometheus.Registerer) *Monitor {
	factory := promauto.With(reg)
	return &Monitor{
		PollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_polls_total",
			Help: "Number of order feed polls attempted.",
		}),
		PollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_poll_failures_total",
			Help: "Number of order feed polls that failed and were skipped.",
		}),
		PollsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_polls_skipped_total",
			Help: "Number of poll ticks skipped because one was in flight.",
		}),
		NotificationsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_notifications_emitted_total",
			Help: "Number of new-order notifications emitted.",
		}),
		UnreadNotifications: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kirana_notifications_unread",
			Help: "Current number of unread notifications.",
		}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kirana_status_updates_total",
			Help: "Order status mutations by outcome.",
		}, []string{"outcome"}),
		StaleResponsesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_stale_responses_dropped_total",
			Help: "Workbench fetch responses discarded for arriving late.",
		}),
		FetchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kirana_order_fetches_total",
			Help: "Order list fetches issued by the workbench.",
		}),
	}
}
