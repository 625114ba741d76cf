package notify

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/app/models"
)

const flushBatchSize = 200

// FlushDeferred sends every deferred notification whose quiet hours ended.
// Each row is claimed by deleting it first, so concurrent flushers never send
// twice. Sends to a channel the user switched off meanwhile are dropped.
func (d *Dispatcher) FlushDeferred(ctx context.Context) (int, error) {
	var due []models.DeferredNotification
	if err := d.db.WithContext(ctx).
		Where("run_at <= ?", d.now().UTC()).
		Order("run_at ASC, id ASC").
		Limit(flushBatchSize).
		Find(&due).Error; err != nil {
		return 0, err
	}

	sent := 0
	prefs := map[uint]*models.NotificationPreference{}
	for i := range due {
		item := &due[i]
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		res := d.db.WithContext(ctx).Delete(&models.DeferredNotification{}, item.ID)
		if res.Error != nil {
			log.Errorf("[Notify] Cannot claim deferred notification %d: %v", item.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		pref, ok := prefs[item.UserID]
		if !ok {
			var p models.NotificationPreference
			if err := d.db.WithContext(ctx).Where("user_id = ?", item.UserID).First(&p).Error; err != nil {
				log.Errorf("[Notify] Cannot load preferences for user %d, dropping deferred %s: %v", item.UserID, item.Channel, err)
				prefs[item.UserID] = nil
				continue
			}
			pref = &p
			prefs[item.UserID] = pref
		}
		if !pref.ChannelEnabled(item.Channel) || !d.hasSender(item.Channel) {
			log.Infof("[Notify] %s: %s disabled for user %d, dropping deferred send", item.Event, item.Channel, item.UserID)
			continue
		}

		d.send(ctx, item.Channel, item.UserID, item.Target, item.Event, item.BookingID, Message{
			Subject: item.Subject,
			Body:    item.Body,
			Sms:     item.Body,
		})
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) hasSender(channel string) bool {
	switch channel {
	case models.ChannelEmail:
		return d.email != nil
	case models.ChannelSms:
		return d.sms != nil
	case models.ChannelPush:
		return d.push != nil
	}
	return false
}
