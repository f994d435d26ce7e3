package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get handles GET /api/dashboard?country=&niche=&minFollowers=&maxFollowers=&sortBy=&page=
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	filters, errMsg := middleware.ValidateFilters(middleware.FilterInput{
		Country:      fiber.Query[string](c, "country"),
		Niche:        fiber.Query[string](c, "niche"),
		MinFollowers: fiber.Query[string](c, "minFollowers"),
		MaxFollowers: fiber.Query[string](c, "maxFollowers"),
		SortBy:       fiber.Query[string](c, "sortBy"),
	})
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	page, errMsg := middleware.ValidatePage(fiber.Query[string](c, "page"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	view, err := h.svc.Load(c.Context(), session(c), filters, page)
	if err != nil {
		return serviceError(c, err, "Failed to load dashboard")
	}
	return c.JSON(view)
}
