package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/FacundoMartinezR/TikTokFinder/internal/handler"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Dashboard    *handler.DashboardHandler
	Subscription *handler.SubscriptionHandler
}

// Limiters holds the per-route-group rate limiters. A nil limiter disables
// limiting for its group.
type Limiters struct {
	Auth         *middleware.RateLimiter
	Dashboard    *middleware.RateLimiter
	Subscription *middleware.RateLimiter
}

// DefaultLimiters returns the production rate limits.
func DefaultLimiters() Limiters {
	return Limiters{
		Auth:         middleware.NewAuthRateLimiter(),
		Dashboard:    middleware.NewDashboardRateLimiter(),
		Subscription: middleware.NewSubscriptionRateLimiter(),
	}
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, rl Limiters, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestID())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	auth := app.Group("/auth", limit(rl.Auth))
	auth.Get("/me", h.Auth.Me)
	auth.Post("/exchange", h.Auth.Exchange)
	auth.Post("/logout", h.Auth.Logout)

	api := app.Group("/api")
	api.Get("/dashboard", limit(rl.Dashboard), h.Dashboard.Get)

	sub := api.Group("/subscription", limit(rl.Subscription))
	sub.Post("", h.Subscription.Create)
	sub.Post("/check", h.Subscription.Check)
	sub.Post("/cancel", h.Subscription.Cancel)
	sub.Get("/events", h.Subscription.Events)

	// PayPal redirects the browser here after approval.
	app.Get("/paypal/return", limit(rl.Subscription), h.Subscription.PaypalReturn)
}

func limit(rl *middleware.RateLimiter) fiber.Handler {
	if rl == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	return rl.Handler()
}
