package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
)

// Pinger reports database reachability.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping    Pinger
	version string
}

func NewHealthHandler(ping Pinger, version string) *HealthHandler {
	return &HealthHandler{ping: ping, version: version}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if err := h.ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Version:   h.version,
	})
}
