package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FlagsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_flags_submitted_total",
		Help: "Flags accepted from users",
	})
	ReviewsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_reviews_total",
		Help: "Flag reviews by outcome",
	}, []string{"action", "result"})
	NotificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_write_failures_total",
		Help: "Best-effort notifications that could not be stored",
	}, []string{"type"})
	AuditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit entries lost after all retries",
	})
)

func init() {
	prometheus.MustRegister(FlagsSubmitted, ReviewsApplied, NotificationFailures, AuditFailures)
}
