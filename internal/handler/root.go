package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/surepay/surepay-api/internal/config"
)

const welcomeMessage = "Welcome to SurePay API"

// WelcomeResponse is the body of GET /.
type WelcomeResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// BuildWelcome assembles the root payload for the instant now.
func BuildWelcome(cfg config.Config, now time.Time) WelcomeResponse {
	return WelcomeResponse{
		Message:     welcomeMessage,
		Version:     cfg.Version,
		Environment: cfg.Env,
		Timestamp:   formatTimestamp(now),
	}
}

// Root serves the welcome message at GET /.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, BuildWelcome(h.cfg, h.now()))
}
