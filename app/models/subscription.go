package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription mirrors a provider's subscription state for a user. It is only
// written by the billing webhook outcome processor.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	Provider               string     `gorm:"type:varchar(32);not null;index:ux_subscriptions_provider_subid,unique,priority:1" json:"provider"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;index:ux_subscriptions_provider_subid,unique,priority:2" json:"provider_subscription_id"`
	Plan                   string     `gorm:"type:varchar(50);not null;default:'free'" json:"plan"`
	Status                 string     `gorm:"type:varchar(32);not null;index" json:"status"`
	ActivationCount        int        `gorm:"not null;default:0" json:"activation_count"`
	CurrentPeriodEnd       *time.Time `gorm:"default:null" json:"current_period_end,omitempty"`
	RawPayloadJSON         string     `gorm:"type:longtext" json:"-"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	IdentityStatusApproved = "approved"
	IdentityStatusRejected = "rejected"
)

// IdentityVerification stores the result an identity provider reported for a user.
type IdentityVerification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Provider    string     `gorm:"type:varchar(32);not null;index:ux_identity_provider_ref,unique,priority:1" json:"provider"`
	ExternalRef string     `gorm:"type:varchar(191);not null;index:ux_identity_provider_ref,unique,priority:2" json:"external_ref"`
	Status      string     `gorm:"type:varchar(16);not null" json:"status"`
	Reason      string     `gorm:"type:text" json:"reason,omitempty"`
	VerifiedAt  *time.Time `gorm:"default:null" json:"verified_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
