package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
	"github.com/FacundoMartinezR/TikTokFinder/internal/service"
)

type AuthHandler struct {
	svc *service.UserService
}

func NewAuthHandler(svc *service.UserService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	resp, err := h.svc.Me(c.Context(), session(c))
	if err != nil {
		return serviceError(c, err, "Failed to load user")
	}
	return c.JSON(resp)
}

// Exchange handles POST /auth/exchange
func (h *AuthHandler) Exchange(c fiber.Ctx) error {
	var req model.ExchangeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	code, errMsg := middleware.ValidateExchangeCode(req.Code)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	cookies, err := h.svc.Exchange(c.Context(), code)
	if err != nil {
		return serviceError(c, err, "Failed to exchange login code")
	}
	forwardCookies(c, cookies)
	return c.JSON(fiber.Map{"ok": true})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	cookies, err := h.svc.Logout(c.Context(), session(c))
	// Clearing cookies is forwarded even when the auth service failed.
	forwardCookies(c, cookies)
	if err != nil {
		return serviceError(c, err, "Failed to log out")
	}
	return c.JSON(fiber.Map{"ok": true})
}
