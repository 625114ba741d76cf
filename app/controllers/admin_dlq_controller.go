package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/dlq"
)

// RunHistory reports when background jobs last completed.
type RunHistory interface {
	LastRuns(ctx context.Context) (map[string]time.Time, error)
}

// AdminDLQController exposes dead-letter backlog and manual replays to operators.
type AdminDLQController struct {
	runner  *dlq.Runner
	history RunHistory
}

func NewAdminDLQController(runner *dlq.Runner, history RunHistory) *AdminDLQController {
	return &AdminDLQController{runner: runner, history: history}
}

func (ac *AdminDLQController) HandleBacklog(c *fiber.Ctx) error {
	b, err := ac.runner.Backlog(c.UserContext())
	if err != nil {
		log.Errorf("[DLQ] Backlog query failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not count dead-letter items")
	}
	return c.JSON(b)
}

func (ac *AdminDLQController) HandleReplayWebhook(c *fiber.Ctx) error {
	return ac.replay(c, ac.runner.ReplayWebhookItem)
}

func (ac *AdminDLQController) HandleReplaySms(c *fiber.Ctx) error {
	return ac.replay(c, ac.runner.ReplaySmsItem)
}

// HandleSchedulerRuns lists the last completion time per background job.
func (ac *AdminDLQController) HandleSchedulerRuns(c *fiber.Ctx) error {
	if ac.history == nil {
		return c.JSON(fiber.Map{"runs": fiber.Map{}})
	}
	runs, err := ac.history.LastRuns(c.UserContext())
	if err != nil {
		log.Errorf("[Scheduler] Reading last runs failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not read scheduler state")
	}
	if runs == nil {
		runs = map[string]time.Time{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func (ac *AdminDLQController) replay(c *fiber.Ctx, fn func(context.Context, uint) error) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid item id")
	}

	err := fn(c.UserContext(), id)
	switch {
	case errors.Is(err, dlq.ErrItemNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", err.Error())
	case err != nil:
		return jsonError(c, fiber.StatusConflict, "replay_failed", err.Error())
	}
	return c.JSON(fiber.Map{"ok": true, "id": id})
}
