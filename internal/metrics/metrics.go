package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_time_sessions_total",
			Help: "Total number of time-in/time-out events",
		},
		[]string{"event"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_active_sessions",
			Help: "Number of currently open time sessions",
		},
	)

	SessionFeesCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_session_fees_cents_total",
			Help: "Total pay-as-you-go session fees posted, in cents",
		},
	)

	BalanceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_balance_ops_total",
			Help: "Total number of balance ledger operations",
		},
		[]string{"type"},
	)

	MembersRenewedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_members_renewed_total",
			Help: "Total number of membership renewals",
		},
		[]string{"plan"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTimeIn() {
	SessionsTotal.WithLabelValues("time_in").Inc()
	ActiveSessions.Inc()
}

func RecordTimeOut() {
	SessionsTotal.WithLabelValues("time_out").Inc()
	ActiveSessions.Dec()
}

func RecordSessionFee(amountCents int64) {
	SessionFeesCentsTotal.Add(float64(amountCents))
}

func RecordBalanceOp(logType string) {
	BalanceOpsTotal.WithLabelValues(logType).Inc()
}

func RecordRenewal(plan string) {
	MembersRenewedTotal.WithLabelValues(plan).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
