package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/booking"
	"github.com/ManuelReschke/Marketfox/internal/pkg/usercontext"
)

// BookingController exposes the booking state machine to the acting user.
type BookingController struct {
	svc *booking.Service
}

func NewBookingController(svc *booking.Service) *BookingController {
	return &BookingController{svc: svc}
}

type proposeDayRequest struct {
	Day string `json:"day" validate:"required,datetime=2006-01-02"`
}

// HandleCreateBooking opens a PENDING booking for the calling client.
func (bc *BookingController) HandleCreateBooking(c *fiber.Ctx) error {
	var in booking.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid JSON body")
	}

	b, err := bc.svc.Create(c.UserContext(), usercontext.GetUserID(c), in)
	if err != nil {
		return bc.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// HandleGetBooking returns a booking and its message thread to a participant.
func (bc *BookingController) HandleGetBooking(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid booking id")
	}
	userID := usercontext.GetUserID(c)

	b, err := bc.svc.Get(c.UserContext(), id, userID)
	if err != nil {
		return bc.handleError(c, err)
	}
	msgs, err := bc.svc.Messages(c.UserContext(), id, userID)
	if err != nil {
		return bc.handleError(c, err)
	}
	return c.JSON(fiber.Map{"booking": b, "messages": msgs})
}

// HandleBookingAction runs confirm, propose, accept, reject or cancel.
func (bc *BookingController) HandleBookingAction(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid booking id")
	}
	action := booking.Action(c.Params("action"))

	day := ""
	if action == booking.ActionPropose {
		var req proposeDayRequest
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "validation_failed", "day must be YYYY-MM-DD")
		}
		day = req.Day
	}

	b, err := bc.svc.Apply(c.UserContext(), action, id, usercontext.GetUserID(c), day)
	if err != nil {
		return bc.handleError(c, err)
	}
	return c.JSON(b)
}

func (bc *BookingController) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrConflict):
		return jsonError(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, booking.ErrInvalid):
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	log.Errorf("[Booking] Request failed: %v", err)
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Booking request failed")
}
