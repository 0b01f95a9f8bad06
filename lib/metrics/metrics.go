package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_requests_submitted_total",
			Help: "Total number of submitted approval requests",
		},
		[]string{"request_type"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_status_transitions_total",
			Help: "Approval request status transitions",
		},
		[]string{"from", "to"},
	)

	LoansFunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loans_funded_total",
			Help: "Loans created from approved applications",
		},
	)

	FundingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_funding_failures_total",
			Help: "Funding attempts that did not create a loan",
		},
		[]string{"reason"},
	)

	RoleChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_role_changes_total",
			Help: "Role assignment attempts",
		},
		[]string{"operation", "result"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_notifications_created_total",
			Help: "Notification rows created",
		},
		[]string{"notification_type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
