package dlq

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
)

// Backlog reports stored items per DLQ table. Exhausted items are included in
// the totals and also counted separately.
type Backlog struct {
	Webhook          int64 `json:"webhook"`
	WebhookExhausted int64 `json:"webhook_exhausted"`
	Sms              int64 `json:"sms"`
	SmsExhausted     int64 `json:"sms_exhausted"`
}

// Store persists dead-lettered webhook and SMS items.
type Store struct {
	db      *gorm.DB
	backoff Backoff
	now     func() time.Time
}

func NewStore(db *gorm.DB, backoff Backoff) *Store {
	return &Store{db: db, backoff: backoff, now: time.Now}
}

// WithClock replaces the clock used for due queries and next-run times.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) EnqueueWebhook(ctx context.Context, provider string, payload []byte, reason string) error {
	item := &models.WebhookDLQItem{
		Provider:  provider,
		Payload:   payload,
		Reason:    reason,
		NextRunAt: s.backoff.NextRun(s.now(), 0),
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) EnqueueSms(ctx context.Context, payload []byte, reason string) error {
	item := &models.SmsDLQItem{
		Payload:   payload,
		Reason:    reason,
		NextRunAt: s.backoff.NextRun(s.now(), 0),
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DueWebhookItems(ctx context.Context, limit int) ([]models.WebhookDLQItem, error) {
	var items []models.WebhookDLQItem
	err := s.due(ctx, limit).Find(&items).Error
	return items, err
}

func (s *Store) DueSmsItems(ctx context.Context, limit int) ([]models.SmsDLQItem, error) {
	var items []models.SmsDLQItem
	err := s.due(ctx, limit).Find(&items).Error
	return items, err
}

func (s *Store) due(ctx context.Context, limit int) *gorm.DB {
	q := s.db.WithContext(ctx).
		Where("exhausted_at IS NULL AND next_run_at <= ?", s.now().UTC()).
		Order("next_run_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func (s *Store) FindWebhookItem(ctx context.Context, id uint) (*models.WebhookDLQItem, error) {
	var item models.WebhookDLQItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindSmsItem(ctx context.Context, id uint) (*models.SmsDLQItem, error) {
	var item models.SmsDLQItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveWebhookItem(ctx context.Context, item *models.WebhookDLQItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) SaveSmsItem(ctx context.Context, item *models.SmsDLQItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeleteWebhookItem(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.WebhookDLQItem{}, id).Error
}

func (s *Store) DeleteSmsItem(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.SmsDLQItem{}, id).Error
}

// Counts returns the current backlog of both tables.
func (s *Store) Counts(ctx context.Context) (Backlog, error) {
	var b Backlog
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.WebhookDLQItem{}).Count(&b.Webhook).Error; err != nil {
		return b, err
	}
	if err := db.Model(&models.WebhookDLQItem{}).Where("exhausted_at IS NOT NULL").Count(&b.WebhookExhausted).Error; err != nil {
		return b, err
	}
	if err := db.Model(&models.SmsDLQItem{}).Count(&b.Sms).Error; err != nil {
		return b, err
	}
	if err := db.Model(&models.SmsDLQItem{}).Where("exhausted_at IS NOT NULL").Count(&b.SmsExhausted).Error; err != nil {
		return b, err
	}
	return b, nil
}
