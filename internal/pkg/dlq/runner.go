package dlq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/metrics"
)

// ErrItemNotFound is returned by manual replays for unknown ids.
var ErrItemNotFound = errors.New("dead-letter item not found")

// WebhookReplayer runs a stored webhook body through the gateway again.
type WebhookReplayer interface {
	Replay(ctx context.Context, provider string, payload []byte) error
}

// SmsReplayer resends a failed SMS from its stored payload.
type SmsReplayer interface {
	Replay(ctx context.Context, payload []byte) error
}

// Archiver keeps a copy of items that reached the retry ceiling.
type Archiver interface {
	Archive(ctx context.Context, kind models.DeadLetterKind, id uint, payload []byte, reason string) error
}

// Runner drains due items from the store through their replay functions.
type Runner struct {
	store       *Store
	webhooks    WebhookReplayer
	sms         SmsReplayer
	archiver    Archiver
	batchSize   int
	maxAttempts int
}

func NewRunner(store *Store, webhooks WebhookReplayer, sms SmsReplayer, cfg Config) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Runner{
		store:       store,
		webhooks:    webhooks,
		sms:         sms,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
	}
}

// WithArchiver enables archiving of exhausted items.
func (r *Runner) WithArchiver(a Archiver) *Runner {
	r.archiver = a
	return r
}

// Tick replays every due item once. Failures are recorded on the items and
// logged; nothing is returned to the caller.
func (r *Runner) Tick(ctx context.Context) {
	r.refreshBacklog(ctx)

	webhookItems, err := r.store.DueWebhookItems(ctx, r.batchSize)
	if err != nil {
		log.Errorf("[DLQ] Failed to load due webhook items: %v", err)
	}
	for i := range webhookItems {
		if ctx.Err() != nil {
			return
		}
		_ = r.replayWebhook(ctx, &webhookItems[i])
	}

	smsItems, err := r.store.DueSmsItems(ctx, r.batchSize)
	if err != nil {
		log.Errorf("[DLQ] Failed to load due SMS items: %v", err)
	}
	for i := range smsItems {
		if ctx.Err() != nil {
			return
		}
		_ = r.replaySms(ctx, &smsItems[i])
	}
}

// ReplayWebhookItem replays one webhook item now, regardless of its schedule
// or exhaustion.
func (r *Runner) ReplayWebhookItem(ctx context.Context, id uint) error {
	item, err := r.store.FindWebhookItem(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	return r.replayWebhook(ctx, item)
}

// ReplaySmsItem replays one SMS item now, regardless of its schedule or
// exhaustion.
func (r *Runner) ReplaySmsItem(ctx context.Context, id uint) error {
	item, err := r.store.FindSmsItem(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	return r.replaySms(ctx, item)
}

// Backlog returns current counts and refreshes the gauges.
func (r *Runner) Backlog(ctx context.Context) (Backlog, error) {
	b, err := r.store.Counts(ctx)
	if err != nil {
		return b, err
	}
	metrics.DLQBacklog.WithLabelValues(string(models.DeadLetterKindWebhook)).Set(float64(b.Webhook))
	metrics.DLQBacklog.WithLabelValues(string(models.DeadLetterKindSms)).Set(float64(b.Sms))
	return b, nil
}

func (r *Runner) refreshBacklog(ctx context.Context) {
	if _, err := r.Backlog(ctx); err != nil {
		log.Warnf("[DLQ] Failed to refresh backlog gauges: %v", err)
	}
}

func (r *Runner) replayWebhook(ctx context.Context, item *models.WebhookDLQItem) error {
	err := guard(func() error {
		return r.webhooks.Replay(ctx, item.Provider, item.Payload)
	})
	if err == nil {
		metrics.DLQReplays.WithLabelValues(string(models.DeadLetterKindWebhook), "success").Inc()
		if delErr := r.store.DeleteWebhookItem(ctx, item.ID); delErr != nil {
			log.Errorf("[DLQ] Webhook item %d replayed but could not be deleted: %v", item.ID, delErr)
			return delErr
		}
		log.Infof("[DLQ] Webhook item %d (%s) replayed after %d failed attempts", item.ID, item.Provider, item.Attempts)
		return nil
	}

	metrics.DLQReplays.WithLabelValues(string(models.DeadLetterKindWebhook), "failure").Inc()
	item.Attempts++
	item.Reason = err.Error()
	item.NextRunAt = r.store.backoff.NextRun(r.store.now(), item.Attempts)
	newlyExhausted := r.markExhausted(&item.ExhaustedAt, item.Attempts)

	if saveErr := r.store.SaveWebhookItem(ctx, item); saveErr != nil {
		log.Errorf("[DLQ] Could not persist failed replay of webhook item %d: %v", item.ID, saveErr)
	}
	if newlyExhausted {
		log.Errorf("[DLQ] Webhook item %d (%s) exhausted after %d attempts, giving up: %s", item.ID, item.Provider, item.Attempts, item.Reason)
		r.archive(ctx, models.DeadLetterKindWebhook, item.ID, item.Payload, item.Reason)
	} else {
		log.Warnf("[DLQ] Webhook item %d replay failed (attempt %d, next run %s): %v", item.ID, item.Attempts, item.NextRunAt.Format(time.RFC3339), err)
	}
	return err
}

func (r *Runner) replaySms(ctx context.Context, item *models.SmsDLQItem) error {
	err := guard(func() error {
		return r.sms.Replay(ctx, item.Payload)
	})
	if err == nil {
		metrics.DLQReplays.WithLabelValues(string(models.DeadLetterKindSms), "success").Inc()
		if delErr := r.store.DeleteSmsItem(ctx, item.ID); delErr != nil {
			log.Errorf("[DLQ] SMS item %d replayed but could not be deleted: %v", item.ID, delErr)
			return delErr
		}
		log.Infof("[DLQ] SMS item %d replayed after %d failed attempts", item.ID, item.Attempts)
		return nil
	}

	metrics.DLQReplays.WithLabelValues(string(models.DeadLetterKindSms), "failure").Inc()
	item.Attempts++
	item.Reason = err.Error()
	item.NextRunAt = r.store.backoff.NextRun(r.store.now(), item.Attempts)
	newlyExhausted := r.markExhausted(&item.ExhaustedAt, item.Attempts)

	if saveErr := r.store.SaveSmsItem(ctx, item); saveErr != nil {
		log.Errorf("[DLQ] Could not persist failed replay of SMS item %d: %v", item.ID, saveErr)
	}
	if newlyExhausted {
		log.Errorf("[DLQ] SMS item %d exhausted after %d attempts, giving up: %s", item.ID, item.Attempts, item.Reason)
		r.archive(ctx, models.DeadLetterKindSms, item.ID, item.Payload, item.Reason)
	} else {
		log.Warnf("[DLQ] SMS item %d replay failed (attempt %d, next run %s): %v", item.ID, item.Attempts, item.NextRunAt.Format(time.RFC3339), err)
	}
	return err
}

// markExhausted stamps exhaustedAt once attempts reaches the ceiling and
// reports whether this call did it.
func (r *Runner) markExhausted(exhaustedAt **time.Time, attempts int) bool {
	if r.maxAttempts <= 0 || attempts < r.maxAttempts || *exhaustedAt != nil {
		return false
	}
	now := r.store.now().UTC()
	*exhaustedAt = &now
	return true
}

func (r *Runner) archive(ctx context.Context, kind models.DeadLetterKind, id uint, payload []byte, reason string) {
	if r.archiver == nil {
		return
	}
	if err := r.archiver.Archive(ctx, kind, id, payload, reason); err != nil {
		log.Errorf("[DLQ] Failed to archive %s item %d: %v", kind, id, err)
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("replay panic: %v", rec)
		}
	}()
	return fn()
}
