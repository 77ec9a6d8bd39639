package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthSignupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Total number of signup attempts.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts (password step).",
		},
		[]string{"result"},
	)

	CodesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_codes_issued_total",
			Help: "Total number of one-time codes issued.",
		},
		[]string{"kind"},
	)

	CodesVerifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_codes_verified_total",
			Help: "Total number of one-time code checks by outcome.",
		},
		[]string{"kind", "result"},
	)

	PasswordResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_password_resets_total",
			Help: "Total number of password reset requests and completions.",
		},
		[]string{"stage", "result"},
	)

	SessionsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_issued_total",
			Help: "Total number of session tokens issued.",
		},
		[]string{"result"},
	)

	MessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of messages stored.",
		},
		[]string{"kind"},
	)

	MessagesReadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_read_total",
			Help: "Total number of messages flipped to read.",
		},
	)

	UnverifiedPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_unverified_purged_total",
			Help: "Total number of abandoned unverified signups deleted.",
		},
	)

	OnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Number of users with a live push channel.",
		},
	)

	PushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_push_events_total",
			Help: "Total number of push frames by event and outcome.",
		},
		[]string{"event", "result"},
	)
)

// MustRegister registers every collector with a constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthSignupsTotal,
		AuthLoginsTotal,
		CodesIssuedTotal,
		CodesVerifiedTotal,
		PasswordResetsTotal,
		SessionsIssuedTotal,
		MessagesSentTotal,
		MessagesReadTotal,
		UnverifiedPurgedTotal,
		OnlineUsers,
		PushEventsTotal,
	)
}
