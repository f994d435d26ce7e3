package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
	"github.com/FacundoMartinezR/TikTokFinder/internal/service"
)

const maxEventsLimit = 100

type SubscriptionHandler struct {
	svc *service.SubscriptionService
}

func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Create handles POST /api/subscription
func (h *SubscriptionHandler) Create(c fiber.Ctx) error {
	link, err := h.svc.Create(c.Context(), session(c))
	if err != nil {
		return serviceError(c, err, "Failed to create subscription")
	}
	return c.JSON(model.CreateSubscriptionResponse{ApproveLink: link})
}

// Check handles POST /api/subscription/check
func (h *SubscriptionHandler) Check(c fiber.Ctx) error {
	var req model.CheckSubscriptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	return h.check(c, req.SubscriptionID)
}

// PaypalReturn handles GET /paypal/return?subscription_id=
// PayPal sends subscription_id; subscriptionId is accepted as well.
func (h *SubscriptionHandler) PaypalReturn(c fiber.Ctx) error {
	id := fiber.Query[string](c, "subscription_id")
	if id == "" {
		id = fiber.Query[string](c, "subscriptionId")
	}
	return h.check(c, id)
}

func (h *SubscriptionHandler) check(c fiber.Ctx, rawID string) error {
	id, errMsg := middleware.ValidateSubscriptionID(rawID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Check(c.Context(), session(c), id, middleware.RequestID(c))
	if err != nil {
		return serviceError(c, err, "Failed to check subscription")
	}
	return c.JSON(resp)
}

// Cancel handles POST /api/subscription/cancel
func (h *SubscriptionHandler) Cancel(c fiber.Ctx) error {
	resp, err := h.svc.Cancel(c.Context(), session(c), middleware.RequestID(c))
	if err != nil {
		return serviceError(c, err, "Failed to cancel subscription")
	}
	return c.JSON(resp)
}

// Events handles GET /api/subscription/events?limit=
func (h *SubscriptionHandler) Events(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", 20)
	if limit < 1 || limit > maxEventsLimit {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "limit must be between 1 and 100")
	}

	events, err := h.svc.Events(c.Context(), session(c), limit)
	if err != nil {
		return serviceError(c, err, "Failed to load subscription events")
	}
	if events == nil {
		events = []model.SubscriptionEvent{}
	}
	return c.JSON(fiber.Map{"events": events})
}
