package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/surepay/surepay-api/internal/handler"
)

const (
	PathHealth = "/health"
	PathRoot   = "/"
	PathStatus = "/api/status"
)

// RegisterRoutes maps the informational endpoints onto e.  The health probe
// is registered bare so orchestrators are never throttled; the public
// routes receive the extra middleware (the rate limiter, when configured).
//
// Paths are exact matches.  Unknown paths fall through to echo's 404 and
// other methods on these paths to its 405.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, public ...echo.MiddlewareFunc) {
	e.GET(PathHealth, h.Health)

	e.GET(PathRoot, h.Root, public...)
	e.GET(PathStatus, h.Status, public...)
}
