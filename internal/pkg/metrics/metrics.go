package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts gateway outcomes per provider
	// (accepted, replayed, malformed, dead_lettered, signature_invalid).
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketfox_webhook_events_total",
		Help: "Inbound webhook deliveries by provider and outcome.",
	}, []string{"provider", "outcome"})

	// DLQReplays counts replay attempts per kind (webhook, sms) and result.
	DLQReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketfox_dlq_replays_total",
		Help: "Dead-letter replay attempts by kind and result.",
	}, []string{"kind", "result"})

	// DLQBacklog is recomputed on every runner tick.
	DLQBacklog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "marketfox_dlq_backlog",
		Help: "Dead-letter items currently stored, by kind.",
	}, []string{"kind"})

	// NotificationSends counts channel attempts (sent, deferred, failed, skipped).
	NotificationSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketfox_notification_sends_total",
		Help: "Notification channel attempts by channel and result.",
	}, []string{"channel", "result"})
)
