package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/surepay/surepay-api/internal/config"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// BuildHealth assembles the health payload for the instant now.
func BuildHealth(cfg config.Config, now time.Time) HealthResponse {
	return HealthResponse{
		Status:    "healthy",
		Timestamp: formatTimestamp(now),
		Version:   cfg.Version,
	}
}

// Health is the liveness probe used by load balancers and orchestrators.
// It has no dependencies and always answers 200.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, BuildHealth(h.cfg, h.now()))
}
