package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// SendResult is what a provider returns for an accepted message.
type SendResult struct {
	ProviderMessageID string
}

// Provider is the network side of an SMS send.
type Provider interface {
	SendSMS(ctx context.Context, to, body string) (SendResult, error)
}

// TwilioConfig configures the Twilio REST client.
type TwilioConfig struct {
	BaseURL        string
	AccountSID     string
	AuthToken      string
	From           string
	StatusCallback string
	Timeout        time.Duration
}

// TwilioClient sends messages through Twilio's Messages API.
type TwilioClient struct {
	http           *resty.Client
	accountSID     string
	from           string
	statusCallback string
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewTwilioClient(cfg TwilioConfig) (*TwilioClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	if cfg.From == "" {
		return nil, errors.New("twilio sender number is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(cfg.Timeout)

	return &TwilioClient{
		http:           client,
		accountSID:     cfg.AccountSID,
		from:           cfg.From,
		statusCallback: cfg.StatusCallback,
	}, nil
}

func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (SendResult, error) {
	form := map[string]string{
		"To":   to,
		"From": c.from,
		"Body": body,
	}
	if c.statusCallback != "" {
		form["StatusCallback"] = c.statusCallback
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sid", c.accountSID).
		SetFormData(form).
		SetResult(&twilioMessage{}).
		SetError(&twilioError{}).
		Post("/Accounts/{sid}/Messages.json")
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*twilioError); ok && apiErr.Message != "" {
			return SendResult{}, fmt.Errorf("twilio error %d (status %d): %s", apiErr.Code, resp.StatusCode(), apiErr.Message)
		}
		return SendResult{}, fmt.Errorf("twilio error: status %s", resp.Status())
	}

	msg := resp.Result().(*twilioMessage)
	if msg.SID == "" {
		return SendResult{}, errors.New("twilio response without message sid")
	}
	return SendResult{ProviderMessageID: msg.SID}, nil
}

// LogProvider only logs messages. Used when no SMS provider is configured.
type LogProvider struct{}

func (LogProvider) SendSMS(_ context.Context, to, body string) (SendResult, error) {
	id := "log-" + uuid.NewString()
	log.Infof("[SMS] (log provider) to=%s id=%s body=%q", to, id, body)
	return SendResult{ProviderMessageID: id}, nil
}

// ProviderFromEnv returns the Twilio client when SMS_PROVIDER=twilio and the
// log provider otherwise.
func ProviderFromEnv() (Provider, error) {
	switch strings.ToLower(env.GetEnv("SMS_PROVIDER", "log")) {
	case "twilio":
		return NewTwilioClient(TwilioConfig{
			BaseURL:        env.GetEnv("SMS_TWILIO_BASE_URL", ""),
			AccountSID:     env.GetEnv("SMS_TWILIO_ACCOUNT_SID", ""),
			AuthToken:      env.GetEnv("SMS_TWILIO_AUTH_TOKEN", ""),
			From:           env.GetEnv("SMS_FROM", ""),
			StatusCallback: env.GetEnv("SMS_STATUS_CALLBACK_URL", ""),
			Timeout:        env.GetEnvDuration("SMS_TIMEOUT", 10*time.Second),
		})
	case "log", "":
		return LogProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", env.GetEnv("SMS_PROVIDER", ""))
	}
}
