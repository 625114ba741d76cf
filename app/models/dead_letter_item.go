package models

import "time"

// DeadLetterKind names the delivery path a dead-lettered item belongs to.
type DeadLetterKind string

const (
	DeadLetterKindWebhook DeadLetterKind = "webhook"
	DeadLetterKindSms     DeadLetterKind = "sms"
)

// WebhookDLQItem holds a raw webhook body whose outcome processing failed.
// Payload is the exact byte stream received so a replay sees a fresh delivery.
type WebhookDLQItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Provider    string     `gorm:"type:varchar(32);not null;index" json:"provider"`
	Payload     []byte     `gorm:"type:longblob;not null" json:"-"`
	Reason      string     `gorm:"type:text" json:"reason"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	NextRunAt   time.Time  `gorm:"not null;index:idx_webhook_dlq_due,priority:2" json:"next_run_at"`
	ExhaustedAt *time.Time `gorm:"default:null;index:idx_webhook_dlq_due,priority:1" json:"exhausted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WebhookDLQItem) TableName() string { return "webhook_dlq_items" }

// SmsDLQItem holds an SMS send that failed. Payload is JSON produced by the
// SMS sender and only understood by its replay function.
type SmsDLQItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Payload     []byte     `gorm:"type:blob;not null" json:"-"`
	Reason      string     `gorm:"type:text" json:"reason"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	NextRunAt   time.Time  `gorm:"not null;index:idx_sms_dlq_due,priority:2" json:"next_run_at"`
	ExhaustedAt *time.Time `gorm:"default:null;index:idx_sms_dlq_due,priority:1" json:"exhausted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SmsDLQItem) TableName() string { return "sms_dlq_items" }
