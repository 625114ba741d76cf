package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/metrics"
)

// DeadLetterSink receives SMS sends that failed.
type DeadLetterSink interface {
	EnqueueSms(ctx context.Context, payload []byte, reason string) error
}

// SendRequest describes one outgoing SMS.
type SendRequest struct {
	UserID    uint
	To        string
	Body      string
	Type      string
	BookingID *uint
}

type replayPayload struct {
	MessageID uint `json:"message_id"`
}

// Sender records every SMS before handing it to the provider and dead-letters
// failed sends.
type Sender struct {
	db       *gorm.DB
	provider Provider
	dlq      DeadLetterSink
}

func NewSender(db *gorm.DB, provider Provider, dlq DeadLetterSink) *Sender {
	return &Sender{db: db, provider: provider, dlq: dlq}
}

// Send persists a QUEUED message and attempts delivery. A provider failure
// leaves the message FAILED and enqueues it for replay; the error is still
// returned for logging.
func (s *Sender) Send(ctx context.Context, req SendRequest) (*models.SmsMessage, error) {
	msg := &models.SmsMessage{
		Reference: uuid.NewString(),
		UserID:    req.UserID,
		To:        req.To,
		Body:      models.TruncateSmsBody(req.Body),
		Type:      req.Type,
		BookingID: req.BookingID,
		Status:    models.SmsStatusQueued,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("record sms: %w", err)
	}

	if err := s.deliver(ctx, msg); err != nil {
		s.deadLetter(ctx, msg, err)
		return msg, err
	}
	return msg, nil
}

// Replay resends the message referenced by a dead-letter payload. Messages the
// provider already accepted are not sent twice.
func (s *Sender) Replay(ctx context.Context, payload []byte) error {
	var p replayPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode sms replay payload: %w", err)
	}
	if p.MessageID == 0 {
		return errors.New("sms replay payload without message_id")
	}

	var msg models.SmsMessage
	if err := s.db.WithContext(ctx).First(&msg, p.MessageID).Error; err != nil {
		return fmt.Errorf("load sms %d: %w", p.MessageID, err)
	}
	if msg.Status == models.SmsStatusSent || msg.Status == models.SmsStatusDelivered {
		return nil
	}
	return s.deliver(ctx, &msg)
}

func (s *Sender) deliver(ctx context.Context, msg *models.SmsMessage) error {
	res, err := s.provider.SendSMS(ctx, msg.To, msg.Body)
	if err != nil {
		metrics.NotificationSends.WithLabelValues(models.ChannelSms, "failed").Inc()
		msg.Status = models.SmsStatusFailed
		msg.LastError = err.Error()
		if upErr := s.db.WithContext(ctx).Model(msg).Updates(map[string]interface{}{
			"status":     msg.Status,
			"last_error": msg.LastError,
		}).Error; upErr != nil {
			log.Errorf("[SMS] Failed to mark message %d failed: %v", msg.ID, upErr)
		}
		return err
	}

	metrics.NotificationSends.WithLabelValues(models.ChannelSms, "sent").Inc()
	msg.Status = models.SmsStatusSent
	msg.LastError = ""
	updates := map[string]interface{}{
		"status":     msg.Status,
		"last_error": "",
	}
	if res.ProviderMessageID != "" {
		id := res.ProviderMessageID
		msg.ProviderMessageID = &id
		updates["provider_message_id"] = id
	}
	if err := s.db.WithContext(ctx).Model(msg).Updates(updates).Error; err != nil {
		// The provider accepted the message; a replay would send it twice.
		log.Errorf("[SMS] Message %d sent but status update failed: %v", msg.ID, err)
	}
	return nil
}

func (s *Sender) deadLetter(ctx context.Context, msg *models.SmsMessage, cause error) {
	log.Warnf("[SMS] Send of message %d to user %d failed: %v", msg.ID, msg.UserID, cause)
	if s.dlq == nil {
		return
	}
	payload, err := json.Marshal(replayPayload{MessageID: msg.ID})
	if err != nil {
		log.Errorf("[SMS] Could not encode replay payload for message %d: %v", msg.ID, err)
		return
	}
	if err := s.dlq.EnqueueSms(ctx, payload, cause.Error()); err != nil {
		log.Errorf("[SMS] Could not dead-letter message %d: %v", msg.ID, err)
	}
}
