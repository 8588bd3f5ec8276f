// Package queue defines the lifecycle messages exchanged over RabbitMQ and
// the helpers that publish and consume them.
package queue

import (
	"os"
	"time"

	"github.com/surepay/surepay-api/internal/config"
)

// ServiceStartedEvent is published once the HTTP listener is bound.  It
// carries enough for deploy tooling to confirm which version came up where.
type ServiceStartedEvent struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Port        int    `json:"port"`
	Hostname    string `json:"hostname"`
	StartedAt   string `json:"started_at"`
}

// NewServiceStartedEvent describes this process for the given start time.
func NewServiceStartedEvent(service string, cfg config.Config, startedAt time.Time) ServiceStartedEvent {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return ServiceStartedEvent{
		Service:     service,
		Version:     cfg.Version,
		Environment: cfg.Env,
		Port:        cfg.Port,
		Hostname:    host,
		StartedAt:   startedAt.UTC().Format(time.RFC3339Nano),
	}
}
