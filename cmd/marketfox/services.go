package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/internal/pkg/booking"
	"github.com/ManuelReschke/Marketfox/internal/pkg/cache"
	"github.com/ManuelReschke/Marketfox/internal/pkg/dlq"
	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
	"github.com/ManuelReschke/Marketfox/internal/pkg/mail"
	"github.com/ManuelReschke/Marketfox/internal/pkg/notify"
	"github.com/ManuelReschke/Marketfox/internal/pkg/push"
	"github.com/ManuelReschke/Marketfox/internal/pkg/s3archive"
	"github.com/ManuelReschke/Marketfox/internal/pkg/scheduler"
	"github.com/ManuelReschke/Marketfox/internal/pkg/sms"
	"github.com/ManuelReschke/Marketfox/internal/pkg/webhook"
)

// services holds the wired delivery subsystem.
type services struct {
	gateway    *webhook.Gateway
	smsSender  *sms.Sender
	dispatcher *notify.Dispatcher
	bookings   *booking.Service
	runner     *dlq.Runner
	scheduler  *scheduler.Manager
	publisher  *push.Publisher
}

func newServices(db *gorm.DB) *services {
	dlqCfg := dlq.ConfigFromEnv()
	store := dlq.NewStore(db, dlqCfg.Backoff)

	registry, err := webhook.RegistryFromEnv()
	if err != nil {
		log.Fatalf("[Webhook] Invalid provider configuration: %v", err)
	}
	gateway := webhook.NewGateway(webhook.NewRepository(db), registry, store)

	provider, err := sms.ProviderFromEnv()
	if err != nil {
		log.Fatalf("[SMS] %v", err)
	}
	smsSender := sms.NewSender(db, provider, store)

	var email notify.EmailSender
	if cfg := mail.ConfigFromEnv(); cfg.Enabled() {
		email = mail.NewSMTPMailer(cfg)
	} else {
		log.Warn("[Mail] SMTP_HOST not set, email notifications disabled")
	}

	var pusher notify.PushSender
	publisher, err := push.DialFromEnv()
	if err != nil {
		log.Errorf("[Push] RabbitMQ unavailable, push notifications disabled: %v", err)
	} else if publisher != nil {
		pusher = publisher
	}

	dispatcher := notify.NewDispatcher(db, email, smsSender, pusher, nil, notify.DefaultsFromEnv())

	runner := dlq.NewRunner(store, gateway, smsSender, dlqCfg)
	if archiveCfg, err := s3archive.LoadConfig(); err != nil {
		log.Errorf("[S3Archive] Invalid configuration, archive disabled: %v", err)
	} else if archiveCfg.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := s3archive.NewClient(ctx, archiveCfg)
		cancel()
		if err != nil {
			log.Errorf("[S3Archive] Bucket check failed, archive disabled: %v", err)
		} else {
			runner.WithArchiver(client)
		}
	}

	var coord scheduler.Coordinator
	if cache.Reachable() {
		coord = cache.NewCoordinator(cache.GetClient())
	} else {
		log.Warn("[Scheduler] Redis unreachable, jobs run without a lease")
	}
	sched := scheduler.NewManager(coord,
		scheduler.Job{
			Name:     "dlq-runner",
			Interval: dlqCfg.PollInterval,
			Run: func(ctx context.Context) error {
				runner.Tick(ctx)
				return nil
			},
		},
		scheduler.Job{
			Name:     "deferred-flush",
			Interval: env.GetEnvDuration("DEFERRED_FLUSH_INTERVAL", time.Minute),
			Run: func(ctx context.Context) error {
				_, err := dispatcher.FlushDeferred(ctx)
				return err
			},
		},
	)

	return &services{
		gateway:    gateway,
		smsSender:  smsSender,
		dispatcher: dispatcher,
		bookings:   booking.NewService(db, dispatcher),
		runner:     runner,
		scheduler:  sched,
		publisher:  publisher,
	}
}

func (s *services) Close() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Warnf("[Push] Closing publisher: %v", err)
		}
	}
}
