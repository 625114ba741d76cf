package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// NotificationPreference stores per-user channel switches and the local
// quiet-hours window ("HH:MM"). An empty window disables quiet hours.
type NotificationPreference struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	EmailOn    bool      `gorm:"not null" json:"email_on"`
	SmsOn      bool      `gorm:"not null" json:"sms_on"`
	PushOn     bool      `gorm:"not null" json:"push_on"`
	QuietStart string    `gorm:"type:varchar(5);default:''" json:"quiet_start" validate:"omitempty,len=5"`
	QuietEnd   string    `gorm:"type:varchar(5);default:''" json:"quiet_end" validate:"omitempty,len=5"`
	Language   string    `gorm:"type:varchar(8);default:''" json:"language"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChannelEnabled reports the switch for a channel name (email, sms, push).
func (p *NotificationPreference) ChannelEnabled(channel string) bool {
	if p == nil {
		return false
	}
	switch channel {
	case ChannelEmail:
		return p.EmailOn
	case ChannelSms:
		return p.SmsOn
	case ChannelPush:
		return p.PushOn
	}
	return false
}

// GetOrCreateNotificationPreference returns the stored preference or persists
// a copy of defaults for the user. A concurrent creator winning the unique
// index is resolved by re-reading.
func GetOrCreateNotificationPreference(db *gorm.DB, userID uint, defaults NotificationPreference) (*NotificationPreference, error) {
	var pref NotificationPreference
	err := db.Where("user_id = ?", userID).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pref = defaults
	pref.ID = 0
	pref.UserID = userID
	if err := db.Create(&pref).Error; err != nil {
		var existing NotificationPreference
		if lookupErr := db.Where("user_id = ?", userID).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &pref, nil
}
