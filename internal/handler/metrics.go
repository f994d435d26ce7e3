package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	m := &metrics.Metrics
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(): Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		m.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		m.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		m.RequestsInFlight.Dec()

		return err
	}
}

// knownEndpoints are the only paths reported as-is; anything else is
// collapsed to keep label cardinality bounded.
var knownEndpoints = map[string]bool{
	"/health/live":             true,
	"/health/ready":            true,
	"/auth/me":                 true,
	"/auth/exchange":           true,
	"/auth/logout":             true,
	"/api/dashboard":           true,
	"/api/subscription":        true,
	"/api/subscription/check":  true,
	"/api/subscription/cancel": true,
	"/api/subscription/events": true,
	"/paypal/return":           true,
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if knownEndpoints[path] {
		return path
	}
	return "other"
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
