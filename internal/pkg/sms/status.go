package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/ManuelReschke/Marketfox/app/models"
)

// ErrUnrecognizedCallback means neither known callback shape was found.
var ErrUnrecognizedCallback = errors.New("unrecognized sms status callback")

// StatusUpdate is a provider delivery report.
type StatusUpdate struct {
	ProviderMessageID string
	Status            string
}

type vonageStatus struct {
	MessageUUID string `json:"message_uuid"`
	Status      string `json:"status"`
}

// ParseStatusCallback reads a Twilio form post (MessageSid, MessageStatus) or
// a Vonage JSON body (message_uuid, status).
func ParseStatusCallback(contentType string, body []byte) (StatusUpdate, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return StatusUpdate{}, ErrUnrecognizedCallback
		}
		upd := StatusUpdate{
			ProviderMessageID: strings.TrimSpace(form.Get("MessageSid")),
			Status:            strings.TrimSpace(form.Get("MessageStatus")),
		}
		if upd.ProviderMessageID == "" {
			return StatusUpdate{}, ErrUnrecognizedCallback
		}
		return upd, nil
	}

	var v vonageStatus
	if err := json.Unmarshal(body, &v); err != nil || strings.TrimSpace(v.MessageUUID) == "" {
		return StatusUpdate{}, ErrUnrecognizedCallback
	}
	return StatusUpdate{
		ProviderMessageID: strings.TrimSpace(v.MessageUUID),
		Status:            strings.TrimSpace(v.Status),
	}, nil
}

// MapProviderStatus translates provider wording into the message status
// enum. Only final or sent reports are mapped.
func MapProviderStatus(status string) (string, bool) {
	switch strings.ToLower(status) {
	case "delivered":
		return models.SmsStatusDelivered, true
	case "failed":
		return models.SmsStatusFailed, true
	case "sent":
		return models.SmsStatusSent, true
	}
	return "", false
}

// ApplyStatus stores a delivery report. Unknown statuses and unknown message
// ids are ignored; the return value tells whether a row was touched.
func (s *Sender) ApplyStatus(ctx context.Context, upd StatusUpdate) (bool, error) {
	status, ok := MapProviderStatus(upd.Status)
	if !ok || upd.ProviderMessageID == "" {
		return false, nil
	}

	q := s.db.WithContext(ctx).Model(&models.SmsMessage{}).
		Where("provider_message_id = ?", upd.ProviderMessageID)
	if status == models.SmsStatusSent {
		// a late "sent" must not overwrite a final state
		q = q.Where("status IN ?", []string{models.SmsStatusQueued, models.SmsStatusSent})
	}
	res := q.Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
