// Package server assembles the echo instance and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/surepay/surepay-api/internal/config"
	"github.com/surepay/surepay-api/internal/handler"
	"github.com/surepay/surepay-api/internal/logging"
	"github.com/surepay/surepay-api/internal/middleware"
	"github.com/surepay/surepay-api/internal/queue"
	"github.com/surepay/surepay-api/internal/router"
)

// ServiceName identifies this service in responses and lifecycle events.
const ServiceName = "SurePay"

const announceTimeout = 10 * time.Second

// PublishFunc sends the startup announcement.
type PublishFunc func(ctx context.Context, cfg config.BrokerConfig, ev queue.ServiceStartedEvent) error

// Server binds the listener, builds the routes and serves them.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	clock   handler.Clock
	rdb     *redis.Client
	publish PublishFunc

	ln      net.Listener
	echo    *echo.Echo
	started time.Time

	announced sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for startup lines, requests and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for uptime and response timestamps.
func WithClock(c handler.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRedis enables the rate limiter on the public routes.
func WithRedis(rdb *redis.Client) Option {
	return func(s *Server) { s.rdb = rdb }
}

// WithPublisher replaces the RabbitMQ publisher used for the startup
// announcement.
func WithPublisher(p PublishFunc) Option {
	return func(s *Server) {
		if p != nil {
			s.publish = p
		}
	}
}

// WithListener serves on an already bound listener instead of binding
// cfg.Addr().
func WithListener(ln net.Listener) Option {
	return func(s *Server) { s.ln = ln }
}

// New returns a Server for cfg; nothing is bound until Listen.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		clock:   time.Now,
		publish: queue.PublishServiceStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewEcho returns an echo instance with the middleware chain and the
// informational routes registered.  limiter may be nil.
func NewEcho(h *handler.Handler, logger *slog.Logger, limiter echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))

	var public []echo.MiddlewareFunc
	if limiter != nil {
		public = append(public, limiter)
	}
	router.RegisterRoutes(e, h, public...)
	return e
}

// Listen binds the listener, starts the uptime clock and writes the
// startup lines.  Uptime is measured from this point.
func (s *Server) Listen() error {
	if s.ln == nil {
		ln, err := net.Listen("tcp", s.cfg.Addr())
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
		}
		s.ln = ln
	}
	s.started = s.clock()

	h := handler.New(s.cfg, handler.WithClock(s.clock), handler.WithStartTime(s.started))
	s.echo = NewEcho(h, s.logger, s.limiter())
	s.echo.Listener = s.ln

	startup := logging.StartupLogger(s.logger)
	startup.Info(fmt.Sprintf("Server running on port %d", s.Port()))
	startup.Info("Version: " + s.cfg.Version)
	startup.Info("Environment: " + s.cfg.Env)

	if s.cfg.Broker.Enabled() {
		s.announced.Add(1)
		go s.announce()
	}
	return nil
}

func (s *Server) limiter() echo.MiddlewareFunc {
	if s.rdb == nil {
		return nil
	}
	return middleware.NewTokenBucket(s.cfg.RateLimit, s.rdb, nil, s.logger)
}

func (s *Server) announce() {
	defer s.announced.Done()

	ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
	defer cancel()

	ev := queue.NewServiceStartedEvent(ServiceName, s.cfg, s.started)
	ev.Port = s.Port()
	if err := s.publish(ctx, s.cfg.Broker, ev); err != nil {
		s.logger.Warn("lifecycle announcement failed", "queue", s.cfg.Broker.Queue, "error", err)
		return
	}
	s.logger.Debug("lifecycle announcement published", "queue", s.cfg.Broker.Queue)
}

// Port reports the bound TCP port, which differs from the configured one
// when PORT is 0.
func (s *Server) Port() int {
	if s.ln != nil {
		if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.cfg.Port
}

// Addr returns the bound listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve blocks until the server fails or ctx is cancelled.  Cancellation
// closes the listener and open connections immediately.
func (s *Server) Serve(ctx context.Context) error {
	if s.echo == nil {
		return errors.New("server: Serve called before Listen")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.echo.Close()
		case <-done:
		}
	}()

	err := s.echo.Start(s.ln.Addr().String())
	if errors.Is(err, http.ErrServerClosed) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Run binds and serves.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Wait blocks until the startup announcement, if any, has finished.
func (s *Server) Wait() {
	s.announced.Wait()
}
