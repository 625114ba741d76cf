package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
	"github.com/ManuelReschke/Marketfox/internal/pkg/metrics"
	"github.com/ManuelReschke/Marketfox/internal/pkg/sms"
)

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SmsSender records and delivers one SMS, dead-lettering failures.
type SmsSender interface {
	Send(ctx context.Context, req sms.SendRequest) (*models.SmsMessage, error)
}

// PushSender delivers a push notification to all devices of a user.
type PushSender interface {
	SendPush(ctx context.Context, userID uint, title, body string) error
}

// Notification is a domain event addressed to one user.
type Notification struct {
	Event      string
	UserID     uint
	Context    map[string]string
	LocaleHint string
	BookingID  *uint
}

// Defaults seed lazily created preferences and the language fallback.
type Defaults struct {
	EmailOn    bool
	SmsOn      bool
	PushOn     bool
	QuietStart string
	QuietEnd   string
	Language   string
	// Location is the zone quiet hours are read in.
	Location *time.Location
}

// DefaultsFromEnv reads NOTIFY_DEFAULT_* variables.
func DefaultsFromEnv() Defaults {
	d := Defaults{
		EmailOn:    env.GetEnvBool("NOTIFY_DEFAULT_EMAIL", true),
		SmsOn:      env.GetEnvBool("NOTIFY_DEFAULT_SMS", true),
		PushOn:     env.GetEnvBool("NOTIFY_DEFAULT_PUSH", true),
		QuietStart: env.GetEnv("NOTIFY_DEFAULT_QUIET_START", ""),
		QuietEnd:   env.GetEnv("NOTIFY_DEFAULT_QUIET_END", ""),
		Language:   env.GetEnv("NOTIFY_DEFAULT_LANGUAGE", LangEnglish),
		Location:   time.UTC,
	}
	if tz := env.GetEnv("NOTIFY_DEFAULT_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Warnf("[Notify] Unknown NOTIFY_DEFAULT_TIMEZONE %q, using UTC: %v", tz, err)
		} else {
			d.Location = loc
		}
	}
	return d
}

func (d Defaults) preference() models.NotificationPreference {
	return models.NotificationPreference{
		EmailOn:    d.EmailOn,
		SmsOn:      d.SmsOn,
		PushOn:     d.PushOn,
		QuietStart: d.QuietStart,
		QuietEnd:   d.QuietEnd,
	}
}

// Dispatcher fans a notification out to the user's enabled channels, holding
// sends back during quiet hours.
type Dispatcher struct {
	db       *gorm.DB
	email    EmailSender
	sms      SmsSender
	push     PushSender
	catalog  Catalog
	defaults Defaults
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. Nil senders disable their channel.
func NewDispatcher(db *gorm.DB, email EmailSender, smsSender SmsSender, push PushSender, catalog Catalog, defaults Defaults) *Dispatcher {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	return &Dispatcher{
		db:       db,
		email:    email,
		sms:      smsSender,
		push:     push,
		catalog:  catalog,
		defaults: defaults,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for quiet hours.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch sends or defers n on every usable channel. It never fails; every
// problem is logged.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, n.UserID).Error; err != nil {
		log.Errorf("[Notify] %s: cannot load user %d: %v", n.Event, n.UserID, err)
		return
	}

	pref, err := models.GetOrCreateNotificationPreference(d.db.WithContext(ctx), user.ID, d.defaults.preference())
	if err != nil {
		log.Errorf("[Notify] %s: cannot load preferences for user %d: %v", n.Event, user.ID, err)
		return
	}

	stored := pref.Language
	if stored == "" {
		stored = user.Locale
	}
	lang := ResolveLanguage(n.LocaleHint, stored, d.defaults.Language)

	vars := make(map[string]string, len(n.Context)+1)
	vars["name"] = user.Name
	for k, v := range n.Context {
		vars[k] = v
	}
	msg, err := d.catalog.Render(n.Event, lang, vars)
	if err != nil {
		log.Errorf("[Notify] %s: %v", n.Event, err)
		return
	}

	now := d.now()
	quiet, until := QuietWindow(now.In(d.defaults.Location), pref.QuietStart, pref.QuietEnd)

	for _, ch := range []string{models.ChannelEmail, models.ChannelSms, models.ChannelPush} {
		target, ok := d.target(ch, &user, pref)
		if !ok {
			metrics.NotificationSends.WithLabelValues(ch, "skipped").Inc()
			continue
		}
		if quiet {
			d.deferSend(ctx, n, ch, target, msg, until)
			continue
		}
		d.send(ctx, ch, user.ID, target, n.Event, n.BookingID, msg)
	}
}

// target returns the address for a channel, or false when the channel is
// switched off, has no sender or the user has no usable contact.
func (d *Dispatcher) target(channel string, user *models.User, pref *models.NotificationPreference) (string, bool) {
	if !pref.ChannelEnabled(channel) {
		return "", false
	}
	switch channel {
	case models.ChannelEmail:
		return user.Email, d.email != nil && user.HasEmail()
	case models.ChannelSms:
		return user.Phone, d.sms != nil && user.CanReceiveSms()
	case models.ChannelPush:
		return "", d.push != nil
	}
	return "", false
}

func (d *Dispatcher) deferSend(ctx context.Context, n Notification, channel, target string, msg Message, until time.Time) {
	body := msg.Sms
	if channel == models.ChannelEmail {
		body = msg.Body
	}
	item := &models.DeferredNotification{
		UserID:    n.UserID,
		Channel:   channel,
		Event:     n.Event,
		Target:    target,
		Subject:   msg.Subject,
		Body:      body,
		BookingID: n.BookingID,
		RunAt:     until.UTC(),
	}
	if err := d.db.WithContext(ctx).Create(item).Error; err != nil {
		metrics.NotificationSends.WithLabelValues(channel, "failed").Inc()
		log.Errorf("[Notify] %s: cannot defer %s for user %d: %v", n.Event, channel, n.UserID, err)
		return
	}
	metrics.NotificationSends.WithLabelValues(channel, "deferred").Inc()
	log.Debugf("[Notify] %s: %s for user %d deferred until %s", n.Event, channel, n.UserID, item.RunAt.Format(time.RFC3339))
}

// send delivers one channel immediately. SMS is counted by the SMS sender.
func (d *Dispatcher) send(ctx context.Context, channel string, userID uint, target, event string, bookingID *uint, msg Message) {
	err := d.deliver(ctx, channel, userID, target, event, bookingID, msg.Subject, msg.Body, msg.Sms)
	if channel != models.ChannelSms {
		result := "sent"
		if err != nil {
			result = "failed"
		}
		metrics.NotificationSends.WithLabelValues(channel, result).Inc()
	}
	if err != nil {
		log.Errorf("[Notify] %s: %s to user %d failed: %v", event, channel, userID, err)
	}
}

// deliver calls the channel sender. A panicking sender is reported as an
// error so the remaining channels still run.
func (d *Dispatcher) deliver(ctx context.Context, channel string, userID uint, target, event string, bookingID *uint, subject, body, short string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s sender panic: %v", channel, r)
		}
	}()

	switch channel {
	case models.ChannelEmail:
		return d.email.SendEmail(ctx, target, subject, body)
	case models.ChannelSms:
		_, err = d.sms.Send(ctx, sms.SendRequest{
			UserID:    userID,
			To:        target,
			Body:      short,
			Type:      event,
			BookingID: bookingID,
		})
		return err
	case models.ChannelPush:
		return d.push.SendPush(ctx, userID, subject, short)
	}
	return fmt.Errorf("unknown channel %q", channel)
}
