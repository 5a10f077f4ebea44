package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	result, err := h.authService.Login(&in)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, result)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	employeeID, ok := c.Locals("employee_id").(uuid.UUID)
	if !ok {
		return respondError(c, apperr.Validationf("missing employee identity"))
	}
	var in service.ChangePasswordInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	if err := h.authService.ChangePassword(employeeID, &in); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "password changed, log in again"})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	employeeID, ok := c.Locals("employee_id").(uuid.UUID)
	if !ok {
		return respondError(c, apperr.Validationf("missing employee identity"))
	}
	if err := h.authService.Logout(employeeID); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "logged out"})
}
