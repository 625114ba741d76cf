package controllers

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/booking"
	"github.com/ManuelReschke/Marketfox/internal/pkg/middleware"
	"github.com/ManuelReschke/Marketfox/internal/pkg/testdb"
)

type bookingHarness struct {
	app      *fiber.App
	client   *models.User
	provider *models.User
	stranger *models.User
}

func newBookingHarness(t *testing.T) *bookingHarness {
	t.Helper()
	db := testdb.New(t)
	bc := NewBookingController(booking.NewService(db, nil))

	app := newTestApp()
	v1 := app.Group("/api/v1", middleware.RequireUser)
	v1.Post("/bookings", bc.HandleCreateBooking)
	v1.Get("/bookings/:id", bc.HandleGetBooking)
	v1.Post("/bookings/:id/:action", bc.HandleBookingAction)

	return &bookingHarness{
		app:      app,
		client:   testdb.CreateUser(t, db, models.User{Name: "Clara Client"}),
		provider: testdb.CreateUser(t, db, models.User{Name: "Paul Provider", Role: models.ROLE_PROVIDER}),
		stranger: testdb.CreateUser(t, db, models.User{Name: "Sam"}),
	}
}

func (h *bookingHarness) create(t *testing.T) uint {
	t.Helper()
	status, resp := call(t, h.app, "POST", "/api/v1/bookings", h.client.ID, map[string]interface{}{
		"provider_id":   h.provider.ID,
		"service_id":    3,
		"scheduled_day": "2026-07-01",
		"price_cents":   9000,
		"title":         "Garden cleanup",
	})
	require.Equal(t, fiber.StatusCreated, status, resp)
	assert.Equal(t, models.BookingStatusPending, resp["status"])
	return uint(resp["id"].(float64))
}

func TestBookingController_ConfirmFlow(t *testing.T) {
	h := newBookingHarness(t)
	id := h.create(t)
	path := fmt.Sprintf("/api/v1/bookings/%d", id)

	status, _ := call(t, h.app, "POST", path+"/confirm", h.client.ID, nil)
	assert.Equal(t, fiber.StatusForbidden, status, "client cannot confirm")

	status, resp := call(t, h.app, "POST", path+"/confirm", h.provider.ID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.BookingStatusConfirmed, resp["status"])

	status, resp = call(t, h.app, "POST", path+"/confirm", h.provider.ID, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "conflict", resp["error"])

	status, resp = call(t, h.app, "GET", path, h.client.ID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, resp["messages"], 2)

	status, _ = call(t, h.app, "GET", path, h.stranger.ID, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestBookingController_Reschedule(t *testing.T) {
	h := newBookingHarness(t)
	id := h.create(t)
	path := fmt.Sprintf("/api/v1/bookings/%d", id)

	status, resp := call(t, h.app, "POST", path+"/propose", h.provider.ID, map[string]string{"day": "07/09/2026"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", resp["error"])

	status, resp = call(t, h.app, "POST", path+"/propose", h.provider.ID, map[string]string{"day": "2026-07-09"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.BookingStatusRescheduleProposed, resp["status"])
	assert.Equal(t, "2026-07-09", resp["proposed_day"])

	status, resp = call(t, h.app, "POST", path+"/accept", h.client.ID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.BookingStatusConfirmed, resp["status"])
	assert.Equal(t, "2026-07-09", resp["scheduled_day"])
	assert.Nil(t, resp["proposed_day"])
}

func TestBookingController_Errors(t *testing.T) {
	h := newBookingHarness(t)

	status, _ := call(t, h.app, "POST", "/api/v1/bookings", 0, map[string]string{})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, resp := call(t, h.app, "POST", "/api/v1/bookings", h.client.ID, map[string]interface{}{
		"provider_id": h.provider.ID, "service_id": 1, "scheduled_day": "tomorrow", "title": "x",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", resp["error"])

	status, _ = call(t, h.app, "GET", "/api/v1/bookings/abc", h.client.ID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, h.app, "GET", "/api/v1/bookings/999", h.client.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	id := h.create(t)
	status, _ = call(t, h.app, "POST", fmt.Sprintf("/api/v1/bookings/%d/complete", id), h.provider.ID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
