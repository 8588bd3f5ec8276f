package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/surepay/surepay-api/internal/config"
)

const (
	serviceName       = "SurePay"
	statusOperational = "operational"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Service   string  `json:"service"`
	Version   string  `json:"version"`
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}

// BuildStatus assembles the status payload.  Uptime is the number of
// seconds between started and now and is never negative.
func BuildStatus(cfg config.Config, now, started time.Time) StatusResponse {
	uptime := now.Sub(started).Seconds()
	if uptime < 0 {
		uptime = 0
	}
	return StatusResponse{
		Service:   serviceName,
		Version:   cfg.Version,
		Status:    statusOperational,
		Uptime:    uptime,
		Timestamp: formatTimestamp(now),
	}
}

// Status serves the service status report at GET /api/status.
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, BuildStatus(h.cfg, h.now(), h.started))
}
