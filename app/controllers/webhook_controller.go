package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/sms"
	"github.com/ManuelReschke/Marketfox/internal/pkg/webhook"
)

// WebhookController receives provider webhooks and SMS delivery reports.
type WebhookController struct {
	gateway *webhook.Gateway
	sms     *sms.Sender
}

func NewWebhookController(gateway *webhook.Gateway, smsSender *sms.Sender) *WebhookController {
	return &WebhookController{gateway: gateway, sms: smsSender}
}

// HandleProviderWebhook answers 401 on a bad signature and 404 for an
// unknown provider. Everything else is acknowledged with 200 so providers
// do not retry what the ledger or DLQ already holds.
func (wc *WebhookController) HandleProviderWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")
	header, ok := wc.gateway.SignatureHeader(provider)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "unknown_provider", "No webhook provider registered under this name")
	}

	result, err := wc.gateway.Handle(c.UserContext(), provider, copyBody(c), c.Get(header))
	switch {
	case errors.Is(err, webhook.ErrSignatureInvalid):
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "Webhook signature verification failed")
	case errors.Is(err, webhook.ErrUnknownProvider):
		return jsonError(c, fiber.StatusNotFound, "unknown_provider", "No webhook provider registered under this name")
	case err != nil:
		log.Errorf("[Webhook] %s: %v", provider, err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed", "Could not record webhook event")
	}

	if result == webhook.ResultMalformed {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "error": "malformed_event"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "result": result})
}

// HandleSmsStatus stores a Twilio or Vonage delivery report. Unknown
// statuses and message ids are acknowledged without changes.
func (wc *WebhookController) HandleSmsStatus(c *fiber.Ctx) error {
	upd, err := sms.ParseStatusCallback(c.Get(fiber.HeaderContentType), c.Body())
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	updated, err := wc.sms.ApplyStatus(c.UserContext(), upd)
	if err != nil {
		log.Errorf("[SMS] Status update for %s failed: %v", upd.ProviderMessageID, err)
		return jsonError(c, fiber.StatusInternalServerError, "status_update_failed", "Could not store delivery status")
	}
	return c.JSON(fiber.Map{"ok": true, "updated": updated})
}
