package webhook

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

var (
	ErrSignatureInvalid = errors.New("invalid webhook signature")
	ErrUnknownProvider  = errors.New("unknown webhook provider")
)

// Result describes how a delivery was acknowledged.
type Result string

const (
	ResultAccepted     Result = "accepted"
	ResultReplayed     Result = "replayed"
	ResultMalformed    Result = "malformed"
	ResultDeadLettered Result = "dead_lettered"
)

// DeadLetterSink stores payloads whose processing failed.
type DeadLetterSink interface {
	EnqueueWebhook(ctx context.Context, provider string, payload []byte, reason string) error
}

// Gateway verifies, deduplicates and processes inbound provider webhooks.
type Gateway struct {
	repo     Repository
	registry *Registry
	dlq      DeadLetterSink
	now      func() time.Time
}

// NewGateway wires the ledger, provider registry and dead-letter sink.
func NewGateway(repo Repository, registry *Registry, dlq DeadLetterSink) *Gateway {
	return &Gateway{repo: repo, registry: registry, dlq: dlq, now: time.Now}
}

// WithClock replaces the clock used for signature freshness checks.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// SignatureHeader returns the request header a provider signs with.
func (g *Gateway) SignatureHeader(providerName string) (string, bool) {
	p, ok := g.registry.Lookup(providerName)
	if !ok {
		return "", false
	}
	return p.SignatureHeader, true
}

// Handle processes one delivery. Only ErrSignatureInvalid, ErrUnknownProvider
// and ledger read/write failures are returned as errors; every processing
// failure is converted into ledger and dead-letter state.
func (g *Gateway) Handle(ctx context.Context, providerName string, rawBody []byte, signatureHeader string) (Result, error) {
	p, ok := g.registry.Lookup(providerName)
	if !ok {
		return "", ErrUnknownProvider
	}

	if !VerifySignature(p.Scheme, rawBody, signatureHeader, p.Secret, g.now()) {
		metrics.WebhookEvents.WithLabelValues(p.Name, "signature_invalid").Inc()
		return "", ErrSignatureInvalid
	}

	evt, err := ParseEvent(p.Name, rawBody)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(p.Name, string(ResultMalformed)).Inc()
		log.Warnf("[Webhook] %s: dropping malformed event: %v", p.Name, err)
		return ResultMalformed, nil
	}

	created, entry, err := g.repo.CreateLedgerEntryIfNotExists(ctx, &models.WebhookLedgerEntry{
		Provider:        p.Name,
		ExternalEventID: evt.ID,
		EventType:       evt.Type,
		Status:          models.WebhookStatusProcessing,
	})
	if err != nil {
		return "", fmt.Errorf("record webhook event: %w", err)
	}
	if !created {
		metrics.WebhookEvents.WithLabelValues(p.Name, string(ResultReplayed)).Inc()
		log.Infof("[Webhook] %s: event %s already seen (status=%s), skipping", p.Name, evt.ID, entry.Status)
		return ResultReplayed, nil
	}

	if _, err := g.process(ctx, p, evt, entry, []string{models.WebhookStatusProcessing}); err != nil {
		g.deadLetter(ctx, p.Name, entry, rawBody, err)
		metrics.WebhookEvents.WithLabelValues(p.Name, string(ResultDeadLettered)).Inc()
		return ResultDeadLettered, nil
	}

	metrics.WebhookEvents.WithLabelValues(p.Name, string(ResultAccepted)).Inc()
	return ResultAccepted, nil
}

// Replay feeds a dead-lettered payload through the same processing path as a
// live delivery. An event that is already PROCESSED succeeds without running
// the processor again.
func (g *Gateway) Replay(ctx context.Context, providerName string, payload []byte) error {
	p, ok := g.registry.Lookup(providerName)
	if !ok {
		return ErrUnknownProvider
	}
	evt, err := ParseEvent(p.Name, payload)
	if err != nil {
		return err
	}

	entry, err := g.repo.FindLedgerEntry(ctx, p.Name, evt.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, entry, err = g.repo.CreateLedgerEntryIfNotExists(ctx, &models.WebhookLedgerEntry{
			Provider:        p.Name,
			ExternalEventID: evt.ID,
			EventType:       evt.Type,
			Status:          models.WebhookStatusFailed,
		})
	}
	if err != nil {
		return fmt.Errorf("load ledger entry: %w", err)
	}
	if entry.IsProcessed() {
		return nil
	}

	claimed, err := g.process(ctx, p, evt, entry, []string{models.WebhookStatusProcessing, models.WebhookStatusFailed})
	if err != nil {
		if markErr := g.repo.MarkLedgerFailed(ctx, entry.ID, err.Error(), true); markErr != nil {
			log.Errorf("[Webhook] %s: could not mark event %s failed: %v", p.Name, evt.ID, markErr)
		}
		return err
	}
	if !claimed {
		log.Infof("[Webhook] %s: event %s was processed concurrently, replay is a no-op", p.Name, evt.ID)
	}
	return nil
}

func (g *Gateway) process(ctx context.Context, p Provider, evt Event, entry *models.WebhookLedgerEntry, claimable []string) (bool, error) {
	return g.repo.ProcessInTx(ctx, entry.ID, claimable, func(tx *gorm.DB) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("outcome processor panic: %v", r)
			}
		}()
		return p.Processor.Process(ctx, tx, evt)
	})
}

func (g *Gateway) deadLetter(ctx context.Context, provider string, entry *models.WebhookLedgerEntry, rawBody []byte, cause error) {
	log.Errorf("[Webhook] %s: processing event %s failed: %v", provider, entry.ExternalEventID, cause)

	if err := g.repo.MarkLedgerFailed(ctx, entry.ID, cause.Error(), false); err != nil {
		log.Errorf("[Webhook] %s: could not mark event %s failed: %v", provider, entry.ExternalEventID, err)
	}
	if g.dlq == nil {
		return
	}
	if err := g.dlq.EnqueueWebhook(ctx, provider, rawBody, cause.Error()); err != nil {
		log.Errorf("[Webhook] %s: could not dead-letter event %s: %v", provider, entry.ExternalEventID, err)
	}
}
