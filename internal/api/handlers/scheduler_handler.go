package handlers

import (
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/scheduler"
	"github.com/gofiber/fiber/v2"
)

const (
	queueLimit          = 50
	defaultHistoryLimit = 50
)

type SchedulerHandler struct {
	sched *scheduler.PostScheduler
	posts repository.PostRepository
}

func NewSchedulerHandler(sched *scheduler.PostScheduler, posts repository.PostRepository) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, posts: posts}
}

func (h *SchedulerHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.sched.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
		"scheduler": fiber.Map{
			"isRunning": h.sched.IsRunning(),
		},
	})
}

// Check runs one scan-and-publish cycle immediately, outside the timer.
func (h *SchedulerHandler) Check(c *fiber.Ctx) error {
	if err := h.sched.ManualCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Publication check completed",
	})
}

func (h *SchedulerHandler) Start(c *fiber.Ctx) error {
	h.sched.Start()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Scheduler started",
	})
}

func (h *SchedulerHandler) Stop(c *fiber.Ctx) error {
	h.sched.Stop()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Scheduler stopped",
	})
}

// Queue lists approved posts waiting for their publish time.
func (h *SchedulerHandler) Queue(c *fiber.Ctx) error {
	posts, err := h.posts.ListQueue(c.Context(), time.Now(), queueLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    posts,
	})
}

// History pages through posts whose publish time has passed, optionally
// filtered by status.
func (h *SchedulerHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	offset := c.QueryInt("offset", 0)
	status := c.Query("status")

	posts, total, err := h.posts.ListHistory(c.Context(), time.Now(), status, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    posts,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// Retry puts a failed post back into the queue with a fresh attempt budget.
func (h *SchedulerHandler) Retry(c *fiber.Ctx) error {
	postID, err := paramID(c, "postId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid post id",
		})
	}

	post, err := h.posts.GetByID(c.Context(), postID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if post == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Post not found",
		})
	}
	if post.Status != models.PostStatusFailed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Only failed posts can be retried",
		})
	}

	if err := h.posts.ResetForRetry(c.Context(), postID, time.Now()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post queued for retry",
	})
}
