package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger reports whether an upstream service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	directory Pinger
	version   string
	startAt   time.Time
}

// NewHealthHandler builds the health handler. pool, rdb and directory may be
// nil; their checks then report "disabled".
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, directory Pinger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		rdb:       rdb,
		directory: directory,
		version:   version,
		startAt:   time.Now(),
	}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database":  check(ctx, h.pool != nil, func(ctx context.Context) error { return h.pool.Ping(ctx) }),
		"redis":     check(ctx, h.rdb != nil, func(ctx context.Context) error { return h.rdb.Ping(ctx).Err() }),
		"directory": check(ctx, h.directory != nil, func(ctx context.Context) error { return h.directory.Ping(ctx) }),
	}

	overallStatus := "healthy"
	for _, v := range checks {
		if v.(fiber.Map)["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        h.version,
	})
}

func check(ctx context.Context, enabled bool, ping func(context.Context) error) fiber.Map {
	if !enabled {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
