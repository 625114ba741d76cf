package models

import "time"

const (
	SmsStatusQueued    = "QUEUED"
	SmsStatusSent      = "SENT"
	SmsStatusDelivered = "DELIVERED"
	SmsStatusFailed    = "FAILED"
)

// SmsBodyLimit caps the stored body; long texts are cut at this many runes.
const SmsBodyLimit = 480

// SmsMessage is the append-only audit record of one SMS. It is written before
// any provider call, so a message that never left the process is still visible.
type SmsMessage struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Reference         string    `gorm:"type:char(36);uniqueIndex;not null" json:"reference"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	To                string    `gorm:"column:to_number;type:varchar(32);not null" json:"to"`
	Body              string    `gorm:"type:varchar(2000);not null" json:"body"`
	Type              string    `gorm:"type:varchar(64);not null;index" json:"type"`
	BookingID         *uint     `gorm:"default:null;index" json:"booking_id,omitempty"`
	Status            string    `gorm:"type:varchar(16);not null;default:'QUEUED';index" json:"status"`
	ProviderMessageID *string   `gorm:"type:varchar(64);default:null;uniqueIndex" json:"provider_message_id,omitempty"`
	LastError         string    `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TruncateSmsBody cuts body to SmsBodyLimit runes.
func TruncateSmsBody(body string) string {
	r := []rune(body)
	if len(r) <= SmsBodyLimit {
		return body
	}
	return string(r[:SmsBodyLimit])
}
