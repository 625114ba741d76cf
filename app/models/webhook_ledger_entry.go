package models

import "time"

const (
	WebhookStatusProcessing = "PROCESSING"
	WebhookStatusProcessed  = "PROCESSED"
	WebhookStatusFailed     = "FAILED"
)

// WebhookLedgerEntry records every provider event id that passed signature
// verification. The (provider, external_event_id) pair is unique and is the
// single source of truth for "has this webhook already been processed".
type WebhookLedgerEntry struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(32);not null;index:ux_webhook_ledger_provider_event,unique,priority:1" json:"provider"`
	ExternalEventID string     `gorm:"type:varchar(191);not null;index:ux_webhook_ledger_provider_event,unique,priority:2" json:"external_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Status          string     `gorm:"type:varchar(16);not null;default:'PROCESSING';index" json:"status"`
	LastError       string     `gorm:"type:text" json:"last_error,omitempty"`
	RetryCount      int        `gorm:"not null;default:0" json:"retry_count"`
	ProcessedAt     *time.Time `gorm:"default:null" json:"processed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WebhookLedgerEntry) TableName() string { return "webhook_ledger_entries" }

// IsProcessed reports whether the side effects for this event already ran.
func (e *WebhookLedgerEntry) IsProcessed() bool {
	return e != nil && e.Status == WebhookStatusProcessed
}
