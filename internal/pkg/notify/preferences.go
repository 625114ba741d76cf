package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/Marketfox/app/models"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// PreferenceUpdate is a partial update; nil fields are left unchanged. Empty
// quiet-hour strings clear the window.
type PreferenceUpdate struct {
	EmailOn    *bool   `json:"email_on"`
	SmsOn      *bool   `json:"sms_on"`
	PushOn     *bool   `json:"push_on"`
	QuietStart *string `json:"quiet_start" validate:"omitempty,max=5"`
	QuietEnd   *string `json:"quiet_end" validate:"omitempty,max=5"`
	Language   *string `json:"language" validate:"omitempty,max=8"`
}

// Preferences returns the user's preferences, creating them from defaults.
func (d *Dispatcher) Preferences(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	return models.GetOrCreateNotificationPreference(d.db.WithContext(ctx), userID, d.defaults.preference())
}

// UpdatePreferences applies upd after validating quiet hours and language.
func (d *Dispatcher) UpdatePreferences(ctx context.Context, userID uint, upd PreferenceUpdate) (*models.NotificationPreference, error) {
	pref, err := d.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.EmailOn != nil {
		pref.EmailOn = *upd.EmailOn
	}
	if upd.SmsOn != nil {
		pref.SmsOn = *upd.SmsOn
	}
	if upd.PushOn != nil {
		pref.PushOn = *upd.PushOn
	}
	if upd.QuietStart != nil {
		v := strings.TrimSpace(*upd.QuietStart)
		if v != "" {
			if _, err := ParseClock(v); err != nil {
				return nil, err
			}
		}
		pref.QuietStart = v
	}
	if upd.QuietEnd != nil {
		v := strings.TrimSpace(*upd.QuietEnd)
		if v != "" {
			if _, err := ParseClock(v); err != nil {
				return nil, err
			}
		}
		pref.QuietEnd = v
	}
	if upd.Language != nil {
		v := strings.TrimSpace(*upd.Language)
		if v != "" {
			lang, ok := matchTag(v)
			if !ok {
				return nil, ErrUnsupportedLanguage
			}
			v = lang
		}
		pref.Language = v
	}
	if (pref.QuietStart == "") != (pref.QuietEnd == "") {
		return nil, ErrInvalidClock
	}

	if err := d.db.WithContext(ctx).Model(pref).Select("email_on", "sms_on", "push_on", "quiet_start", "quiet_end", "language").Updates(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}
