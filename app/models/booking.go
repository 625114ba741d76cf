package models

import "time"

const (
	BookingStatusPending            = "PENDING"
	BookingStatusConfirmed          = "CONFIRMED"
	BookingStatusRescheduleProposed = "RESCHEDULE_PROPOSED"
	BookingStatusRejected           = "REJECTED"
	BookingStatusCancelled          = "CANCELLED"
	BookingStatusCompleted          = "COMPLETED"
)

// Booking is a client's request for a provider's service on a given day.
// Days are calendar dates formatted as YYYY-MM-DD. Rows are never deleted;
// REJECTED, CANCELLED and COMPLETED are terminal.
type Booking struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClientID     uint      `gorm:"not null;index" json:"client_id"`
	ProviderID   uint      `gorm:"not null;index" json:"provider_id"`
	ServiceID    uint      `gorm:"not null;index" json:"service_id"`
	Status       string    `gorm:"type:varchar(24);not null;default:'PENDING';index" json:"status"`
	ScheduledDay string    `gorm:"type:char(10);not null" json:"scheduled_day"`
	ProposedDay  *string   `gorm:"type:char(10);default:null" json:"proposed_day"`
	PriceCents   int64     `gorm:"not null;default:0" json:"price_cents"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether no further transition is possible.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusRejected, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

const BookingMessageKindSystem = "system"

// BookingMessage is an entry in a booking's message thread. System messages
// are written in the same transaction as the status change they describe.
type BookingMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookingID   uint      `gorm:"not null;index" json:"booking_id"`
	SenderID    uint      `gorm:"not null;default:0" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Kind        string    `gorm:"type:varchar(16);not null" json:"kind"`
	Event       string    `gorm:"type:varchar(64)" json:"event"`
	Body        string    `gorm:"type:text" json:"body"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
