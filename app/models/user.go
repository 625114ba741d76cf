package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ROLE_CLIENT   = "client"
	ROLE_PROVIDER = "provider"
	ROLE_ADMIN    = "admin"
)

// User carries the contact data the notification dispatcher reads. Accounts
// are created and authenticated elsewhere.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email            string    `gorm:"index;type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	Phone            string    `gorm:"type:varchar(32);default:''" json:"phone" validate:"omitempty,e164"`
	PhoneVerified    bool      `gorm:"not null" json:"phone_verified"`
	IdentityVerified bool      `gorm:"not null" json:"identity_verified"`
	Locale           string    `gorm:"type:varchar(8);default:''" json:"locale"`
	Role             string    `gorm:"type:varchar(20);default:'client'" json:"role" validate:"oneof=client provider admin"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// HasEmail reports whether an email address is on file.
func (u *User) HasEmail() bool {
	return u != nil && strings.TrimSpace(u.Email) != ""
}

// CanReceiveSms requires a phone number that passed verification.
func (u *User) CanReceiveSms() bool {
	return u != nil && strings.TrimSpace(u.Phone) != "" && u.PhoneVerified
}
