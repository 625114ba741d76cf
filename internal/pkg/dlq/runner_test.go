package dlq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/testdb"
	"github.com/ManuelReschke/Marketfox/internal/pkg/webhook"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type scriptedWebhooks struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(provider string, call int) error
}

func (s *scriptedWebhooks) Replay(_ context.Context, provider string, _ []byte) error {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[provider]++
	call := s.calls[provider]
	s.mu.Unlock()
	return s.fn(provider, call)
}

func (s *scriptedWebhooks) count(provider string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[provider]
}

type smsFunc func(ctx context.Context, payload []byte) error

func (f smsFunc) Replay(ctx context.Context, payload []byte) error { return f(ctx, payload) }

type archived struct {
	kind models.DeadLetterKind
	id   uint
}

type fakeArchiver struct {
	items []archived
}

func (a *fakeArchiver) Archive(_ context.Context, kind models.DeadLetterKind, id uint, _ []byte, _ string) error {
	a.items = append(a.items, archived{kind: kind, id: id})
	return nil
}

func newTestRunner(t *testing.T, webhooks WebhookReplayer, sms SmsReplayer, maxAttempts int) (*Runner, *Store, *fakeClock, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	clock := newFakeClock()
	store := NewStore(db, Backoff{Base: time.Minute, Multiplier: 2}).WithClock(clock.Now)
	runner := NewRunner(store, webhooks, sms, Config{BatchSize: 10, MaxAttempts: maxAttempts})
	return runner, store, clock, db
}

func noSms(t *testing.T) SmsReplayer {
	return smsFunc(func(context.Context, []byte) error {
		t.Fatal("unexpected SMS replay")
		return nil
	})
}

func webhookItem(t *testing.T, db *gorm.DB, provider string) models.WebhookDLQItem {
	t.Helper()
	var item models.WebhookDLQItem
	require.NoError(t, db.Where("provider = ?", provider).First(&item).Error)
	return item
}

func countWebhookItems(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.WebhookDLQItem{}).Count(&n).Error)
	return n
}

func TestRunner_NotDueItemsAreSkipped(t *testing.T) {
	replayer := &scriptedWebhooks{fn: func(string, int) error { return nil }}
	runner, store, clock, db := newTestRunner(t, replayer, noSms(t), 0)
	ctx := context.Background()

	require.NoError(t, store.EnqueueWebhook(ctx, "billing", []byte(`{}`), "boom"))
	item := webhookItem(t, db, "billing")
	assert.True(t, clock.Now().Add(time.Minute).Equal(item.NextRunAt))
	assert.Zero(t, item.Attempts)

	runner.Tick(ctx)
	clock.Advance(59 * time.Second)
	runner.Tick(ctx)
	assert.Zero(t, replayer.count("billing"))
	assert.Equal(t, int64(1), countWebhookItems(t, db))

	clock.Advance(time.Second)
	runner.Tick(ctx)
	assert.Equal(t, 1, replayer.count("billing"))
	assert.Zero(t, countWebhookItems(t, db))
}

func TestRunner_ConvergesOnAttemptK(t *testing.T) {
	const k = 4
	replayer := &scriptedWebhooks{fn: func(_ string, call int) error {
		if call < k {
			return fmt.Errorf("failure %d", call)
		}
		return nil
	}}
	runner, store, clock, db := newTestRunner(t, replayer, noSms(t), 0)
	ctx := context.Background()
	require.NoError(t, store.EnqueueWebhook(ctx, "billing", []byte(`{}`), "boom"))

	var lastRun time.Time
	for run := 1; run <= k; run++ {
		item := webhookItem(t, db, "billing")
		require.Equal(t, run-1, item.Attempts)
		if !lastRun.IsZero() {
			assert.True(t, item.NextRunAt.After(lastRun), "nextRunAt must grow")
		}
		lastRun = item.NextRunAt

		// One second early: nothing happens.
		clock.Set(item.NextRunAt.Add(-time.Second))
		runner.Tick(ctx)
		require.Equal(t, run-1, replayer.count("billing"))

		clock.Set(item.NextRunAt)
		runner.Tick(ctx)
		require.Equal(t, run, replayer.count("billing"))

		if run < k {
			require.Equal(t, int64(1), countWebhookItems(t, db), "removed before attempt %d", k)
			assert.Equal(t, fmt.Sprintf("failure %d", run), webhookItem(t, db, "billing").Reason)
		}
	}
	assert.Zero(t, countWebhookItems(t, db))
}

func TestRunner_ItemFailuresAreIsolated(t *testing.T) {
	replayer := &scriptedWebhooks{fn: func(provider string, _ int) error {
		switch provider {
		case "panicky":
			panic("processor exploded")
		case "broken":
			return errors.New("nope")
		}
		return nil
	}}
	runner, store, clock, db := newTestRunner(t, replayer, noSms(t), 0)
	ctx := context.Background()

	for _, p := range []string{"panicky", "broken", "healthy"} {
		require.NoError(t, store.EnqueueWebhook(ctx, p, []byte(`{}`), "initial"))
	}
	clock.Advance(time.Minute)
	runner.Tick(ctx)

	assert.Equal(t, 1, replayer.count("healthy"))
	assert.Equal(t, int64(2), countWebhookItems(t, db))
	assert.Equal(t, 1, webhookItem(t, db, "panicky").Attempts)
	assert.Contains(t, webhookItem(t, db, "panicky").Reason, "processor exploded")
	assert.Equal(t, 1, webhookItem(t, db, "broken").Attempts)
}

func TestRunner_ExhaustionFreezesItem(t *testing.T) {
	var fail = true
	replayer := &scriptedWebhooks{fn: func(string, int) error {
		if fail {
			return errors.New("permanent")
		}
		return nil
	}}
	runner, store, clock, db := newTestRunner(t, replayer, noSms(t), 2)
	archiver := &fakeArchiver{}
	runner.WithArchiver(archiver)
	ctx := context.Background()

	require.NoError(t, store.EnqueueWebhook(ctx, "billing", []byte(`{}`), "boom"))
	for i := 0; i < 2; i++ {
		clock.Set(webhookItem(t, db, "billing").NextRunAt)
		runner.Tick(ctx)
	}

	item := webhookItem(t, db, "billing")
	assert.Equal(t, 2, item.Attempts)
	require.NotNil(t, item.ExhaustedAt)
	require.Len(t, archiver.items, 1)
	assert.Equal(t, archived{kind: models.DeadLetterKindWebhook, id: item.ID}, archiver.items[0])

	// Exhausted items are out of the automatic poll.
	clock.Advance(24 * time.Hour)
	runner.Tick(ctx)
	assert.Equal(t, 2, replayer.count("billing"))

	// Manual replay still runs them; failures keep the item frozen.
	assert.Error(t, runner.ReplayWebhookItem(ctx, item.ID))
	item = webhookItem(t, db, "billing")
	assert.Equal(t, 3, item.Attempts)
	assert.NotNil(t, item.ExhaustedAt)
	assert.Len(t, archiver.items, 1)

	fail = false
	require.NoError(t, runner.ReplayWebhookItem(ctx, item.ID))
	assert.Zero(t, countWebhookItems(t, db))

	b, err := runner.Backlog(ctx)
	require.NoError(t, err)
	assert.Equal(t, Backlog{}, b)
}

func TestRunner_ManualReplayUnknownItem(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, &scriptedWebhooks{fn: func(string, int) error { return nil }}, noSms(t), 0)
	assert.ErrorIs(t, runner.ReplayWebhookItem(context.Background(), 42), ErrItemNotFound)
	assert.ErrorIs(t, runner.ReplaySmsItem(context.Background(), 42), ErrItemNotFound)
}

func TestRunner_SmsItems(t *testing.T) {
	var payloads []string
	attempt := 0
	sms := smsFunc(func(_ context.Context, payload []byte) error {
		attempt++
		payloads = append(payloads, string(payload))
		if attempt == 1 {
			return errors.New("carrier timeout")
		}
		return nil
	})
	runner, store, clock, db := newTestRunner(t, &scriptedWebhooks{fn: func(string, int) error { return nil }}, sms, 0)
	ctx := context.Background()

	require.NoError(t, store.EnqueueSms(ctx, []byte(`{"message_id":7}`), "carrier down"))
	b, err := runner.Backlog(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Sms)

	clock.Advance(time.Minute)
	runner.Tick(ctx)

	var item models.SmsDLQItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, 1, item.Attempts)
	assert.Equal(t, "carrier timeout", item.Reason)
	assert.True(t, clock.Now().Add(2*time.Minute).Equal(item.NextRunAt))

	clock.Set(item.NextRunAt)
	runner.Tick(ctx)
	assert.Equal(t, []string{`{"message_id":7}`, `{"message_id":7}`}, payloads)

	var n int64
	require.NoError(t, db.Model(&models.SmsDLQItem{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRunner_BatchSizeBoundsTick(t *testing.T) {
	replayer := &scriptedWebhooks{fn: func(string, int) error { return nil }}
	db := testdb.New(t)
	clock := newFakeClock()
	store := NewStore(db, DefaultBackoff()).WithClock(clock.Now)
	runner := NewRunner(store, replayer, noSms(t), Config{BatchSize: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.EnqueueWebhook(ctx, "billing", []byte(`{}`), "x"))
	}
	clock.Advance(time.Minute)
	runner.Tick(ctx)
	assert.Equal(t, 2, replayer.count("billing"))
	assert.Equal(t, int64(3), countWebhookItems(t, db))
}

// A processor that fails once is dead-lettered by the gateway and converges
// on the first runner tick past its next run time, applying its effect once.
func TestScenario_WebhookReplayAfterTransientFailure(t *testing.T) {
	db := testdb.New(t)
	clock := newFakeClock()
	store := NewStore(db, DefaultBackoff()).WithClock(clock.Now)

	calls, applied := 0, 0
	registry, err := webhook.NewRegistry(webhook.Provider{
		Name:   "billing",
		Secret: "whsec",
		Processor: webhook.ProcessorFunc(func(ctx context.Context, tx *gorm.DB, evt webhook.Event) error {
			calls++
			if calls == 1 {
				return errors.New("transient")
			}
			applied++
			return nil
		}),
	})
	require.NoError(t, err)
	gw := webhook.NewGateway(webhook.NewRepository(db), registry, store).WithClock(clock.Now)
	runner := NewRunner(store, gw, noSms(t), Config{BatchSize: 10, MaxAttempts: 5})

	body := []byte(`{"id":"evt_77","type":"subscription.renewed","metadata":{"user_id":"3"},"data":{}}`)
	res, err := gw.Handle(context.Background(), "billing", body, webhook.Sign(webhook.SchemeHexHMAC, body, "whsec", clock.Now()))
	require.NoError(t, err)
	require.Equal(t, webhook.ResultDeadLettered, res)
	require.Equal(t, int64(1), countWebhookItems(t, db))

	clock.Set(webhookItem(t, db, "billing").NextRunAt.Add(time.Second))
	runner.Tick(context.Background())

	assert.Zero(t, countWebhookItems(t, db))
	assert.Equal(t, 1, applied)

	var entry models.WebhookLedgerEntry
	require.NoError(t, db.Where("external_event_id = ?", "evt_77").First(&entry).Error)
	assert.Equal(t, models.WebhookStatusProcessed, entry.Status)
}
