package webhook

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Marketfox/app/models"
)

// Repository provides the idempotency ledger operations used by the gateway.
type Repository interface {
	CreateLedgerEntryIfNotExists(ctx context.Context, entry *models.WebhookLedgerEntry) (bool, *models.WebhookLedgerEntry, error)
	FindLedgerEntry(ctx context.Context, provider, externalEventID string) (*models.WebhookLedgerEntry, error)
	ProcessInTx(ctx context.Context, entryID uint, claimable []string, fn func(tx *gorm.DB) error) (bool, error)
	MarkLedgerFailed(ctx context.Context, entryID uint, reason string, countRetry bool) error
}

type gormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, now: time.Now}
}

func (r *gormRepository) CreateLedgerEntryIfNotExists(ctx context.Context, entry *models.WebhookLedgerEntry) (bool, *models.WebhookLedgerEntry, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "external_event_id"},
		},
		DoNothing: true,
	}).Create(entry)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	stored, err := r.FindLedgerEntry(ctx, entry.Provider, entry.ExternalEventID)
	if err != nil {
		return false, nil, err
	}
	return created, stored, nil
}

func (r *gormRepository) FindLedgerEntry(ctx context.Context, provider, externalEventID string) (*models.WebhookLedgerEntry, error) {
	var stored models.WebhookLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND external_event_id = ?", provider, externalEventID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ProcessInTx claims the entry by flipping it to PROCESSED from one of the
// claimable states and runs fn in the same transaction. A claim that matches
// no row means another delivery already processed the event; fn is skipped
// and (false, nil) is returned.
func (r *gormRepository) ProcessInTx(ctx context.Context, entryID uint, claimable []string, fn func(tx *gorm.DB) error) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now().UTC()
		res := tx.Model(&models.WebhookLedgerEntry{}).
			Where("id = ? AND status IN ?", entryID, claimable).
			Updates(map[string]interface{}{
				"status":       models.WebhookStatusProcessed,
				"processed_at": now,
				"last_error":   "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := fn(tx); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (r *gormRepository) MarkLedgerFailed(ctx context.Context, entryID uint, reason string, countRetry bool) error {
	updates := map[string]interface{}{
		"status":       models.WebhookStatusFailed,
		"last_error":   reason,
		"processed_at": nil,
	}
	if countRetry {
		updates["retry_count"] = gorm.Expr("retry_count + 1")
	}
	return r.db.WithContext(ctx).Model(&models.WebhookLedgerEntry{}).
		Where("id = ? AND status <> ?", entryID, models.WebhookStatusProcessed).
		Updates(updates).Error
}
