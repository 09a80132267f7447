package handlers

import (
	"errors"

	"contentfactory/internal/service"
	"contentfactory/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	s service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{s: s}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	token, user, err := h.s.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid credentials",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(transfer.LoginResponse{
		Success: true,
		Token:   token,
		User:    transfer.UserInfo{ID: user.ID, Email: user.Email},
	})
}

// Me resolves the authenticated user from the bearer token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.s.Info(c.Context(), GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unknown user",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(transfer.UserInfo{ID: user.ID, Email: user.Email})
}
