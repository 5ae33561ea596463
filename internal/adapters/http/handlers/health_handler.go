package handlers

import (
	"time"

	"geostaff-backend/internal/config"
	"geostaff-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles liveness and readiness endpoints
type HealthHandler struct {
	cfg       *config.Config
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg, startedAt: time.Now()}
}

// Root returns basic service information
// @Summary Service info
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.Success(c, "GeoStaff API", fiber.Map{
		"service": "geostaff-backend",
		"mode":    h.cfg.AppMode,
	})
}

// HealthCheck reports process liveness
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	return response.Success(c, "OK", fiber.Map{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// DatabaseHealthCheck pings the database connection pool
// @Summary Database health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health/db [get]
func (h *HealthHandler) DatabaseHealthCheck(c *fiber.Ctx) error {
	if err := config.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unreachable")
	}
	return response.Success(c, "OK", fiber.Map{
		"status": "healthy",
	})
}
