package handler // declare the package name; contains HTTP handlers

import (
	"time"

	"github.com/surepay/surepay-api/internal/config"
)

// TimestampLayout renders UTC instants with millisecond precision and a "Z"
// suffix, e.g. 2024-05-01T12:00:00.123Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Clock returns the current time.  Tests substitute a fixed clock.
type Clock func() time.Time

// Handler serves the informational endpoints.  All of its state is fixed
// at construction, so a single Handler is safe for concurrent use.
type Handler struct {
	cfg     config.Config
	now     Clock
	started time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces time.Now as the source of timestamps and uptime.
func WithClock(c Clock) Option {
	return func(h *Handler) {
		if c != nil {
			h.now = c
		}
	}
}

// WithStartTime sets the instant uptime is measured from.  It defaults to
// the clock's reading when New is called.
func WithStartTime(t time.Time) Option {
	return func(h *Handler) { h.started = t }
}

// New returns a Handler bound to the given configuration.
func New(cfg config.Config, opts ...Option) *Handler {
	h := &Handler{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	if h.started.IsZero() {
		h.started = h.now()
	}
	return h
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
