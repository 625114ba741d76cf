package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/notify"
	"github.com/ManuelReschke/Marketfox/internal/pkg/usercontext"
)

// PreferenceController reads and updates the caller's notification settings.
type PreferenceController struct {
	dispatcher *notify.Dispatcher
}

func NewPreferenceController(dispatcher *notify.Dispatcher) *PreferenceController {
	return &PreferenceController{dispatcher: dispatcher}
}

func (pc *PreferenceController) HandleGetPreferences(c *fiber.Ctx) error {
	pref, err := pc.dispatcher.Preferences(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		log.Errorf("[Notify] Loading preferences failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not load preferences")
	}
	return c.JSON(pref)
}

// HandleUpdatePreferences applies a partial update; omitted fields are kept.
func (pc *PreferenceController) HandleUpdatePreferences(c *fiber.Ctx) error {
	var upd notify.PreferenceUpdate
	if err := c.BodyParser(&upd); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid JSON body")
	}
	if err := validate.Struct(upd); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	pref, err := pc.dispatcher.UpdatePreferences(c.UserContext(), usercontext.GetUserID(c), upd)
	switch {
	case errors.Is(err, notify.ErrInvalidClock):
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "quiet_start and quiet_end must both be HH:MM or both empty")
	case errors.Is(err, notify.ErrUnsupportedLanguage):
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	case err != nil:
		log.Errorf("[Notify] Updating preferences failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not update preferences")
	}
	return c.JSON(pref)
}
