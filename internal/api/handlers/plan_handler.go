package handlers

import (
	"contentfactory/internal/service"
	"contentfactory/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PlanHandler struct {
	s service.ProjectService
	g service.GeneratorService
}

func NewPlanHandler(s service.ProjectService, g service.GeneratorService) *PlanHandler {
	return &PlanHandler{s: s, g: g}
}

func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	projectID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	plans, err := h.s.ListPlans(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(plans)
}

func (h *PlanHandler) UpsertPlan(c *fiber.Ctx) error {
	projectID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	var req transfer.ContentPlanUpsert
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	plan, err := h.s.UpsertPlan(c.Context(), projectID, &req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(plan)
}

func (h *PlanHandler) GeneratePlan(c *fiber.Ctx) error {
	planID, err := paramID(c, "planId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	summary, err := h.g.GeneratePlan(c.Context(), planID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "Generation completed",
		"generated_dates": summary.GeneratedDates,
		"networks":        summary.Networks,
		"total_generated": summary.TotalGenerated,
	})
}
