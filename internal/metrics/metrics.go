package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Failure reasons used as the "reason" label of CreateFailures.
const (
	ReasonValidation = "validation"
	ReasonPermission = "permission"
	ReasonStorage    = "storage"
	ReasonScheduling = "scheduling"
	ReasonCancelled  = "cancelled"
)

// Metrics holds Prometheus metrics for the reminder engine.
type Metrics struct {
	RemindersCreated       prometheus.Counter
	RemindersDeleted       prometheus.Counter
	CreateFailures         *prometheus.CounterVec
	NotificationsDelivered prometheus.Counter
	NotificationHandles    prometheus.Gauge
	RemindersRestored      prometheus.Counter
	RemindersExpired       prometheus.Counter
}

// New creates and registers the metrics once per process, so repeated calls
// never trip duplicate-registration panics.
//
// Metrics:
//   - medremind_reminders_created_total
//   - medremind_reminders_deleted_total
//   - medremind_create_failures_total{reason}
//   - medremind_notifications_delivered_total
//   - medremind_notification_handles
//   - medremind_reminders_restored_total
//   - medremind_reminders_expired_total
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RemindersCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medremind_reminders_created_total",
				Help: "Total number of reminders created and scheduled",
			}),
			RemindersDeleted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medremind_reminders_deleted_total",
				Help: "Total number of reminders deleted by the user",
			}),
			CreateFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "medremind_create_failures_total",
					Help: "Total number of rejected or rolled back reminder creations",
				},
				[]string{"reason"},
			),
			NotificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medremind_notifications_delivered_total",
				Help: "Total number of delivered reminder notifications",
			}),
			NotificationHandles: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "medremind_notification_handles",
				Help: "Current number of live notification handles",
			}),
			RemindersRestored: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medremind_reminders_restored_total",
				Help: "Total number of pending reminders re-armed at startup",
			}),
			RemindersExpired: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medremind_reminders_expired_total",
				Help: "Total number of reminders dropped at startup because their due time elapsed",
			}),
		}
	})
	return globalMetrics
}

// ObserveDropped exposes a monotonically increasing drop count, such as the
// timer engine's, as medremind_engine_dropped_total.
func ObserveDropped(fn func() uint64) error {
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "medremind_engine_dropped_total",
		Help: "Total number of fired triggers dropped because the consumer lagged",
	}, func() float64 { return float64(fn()) })
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}

func Handler() http.Handler {
	return promhttp.Handler()
}
