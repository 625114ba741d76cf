package models

import "time"

const (
	ChannelEmail = "email"
	ChannelSms   = "sms"
	ChannelPush  = "push"
)

// DeferredNotification is a rendered channel send postponed until the end of
// the recipient's quiet hours. Persisting it lets the send survive restarts.
type DeferredNotification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Channel   string    `gorm:"type:varchar(16);not null" json:"channel"`
	Event     string    `gorm:"type:varchar(64);not null" json:"event"`
	Target    string    `gorm:"type:varchar(200);not null" json:"target"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	BookingID *uint     `gorm:"default:null" json:"booking_id,omitempty"`
	RunAt     time.Time `gorm:"not null;index" json:"run_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
