package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surepay/surepay-api/internal/config"
	"github.com/surepay/surepay-api/internal/handler"
	"github.com/surepay/surepay-api/internal/logging"
	"github.com/surepay/surepay-api/internal/queue"
)

// syncBuffer guards a bytes.Buffer shared between the server goroutines
// and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func defaultConfig() config.Config {
	return config.Config{Port: 3000, Version: "1.0.0", Env: "development", LogLevel: "info"}
}

func getJSON(t *testing.T, e *echo.Echo, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestNewEchoDefaults(t *testing.T) {
	h := handler.New(defaultConfig())
	e := NewEcho(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)

	code, body := getJSON(t, e, "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "SurePay", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "operational", body["status"])
	uptime, ok := body["uptime"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, uptime, 0.0)
	assert.Less(t, uptime, 5.0)

	code, body = getJSON(t, e, "/")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome to SurePay API", body["message"])
	assert.Equal(t, "development", body["environment"])
}

func TestNewEchoOverriddenConfig(t *testing.T) {
	cfg := config.Config{Port: 4000, Version: "2.3.1", Env: "production"}
	e := NewEcho(handler.New(cfg), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)

	for _, path := range []string{"/health", "/", "/api/status"} {
		code, body := getJSON(t, e, path)
		require.Equal(t, http.StatusOK, code, path)
		assert.Equal(t, "2.3.1", body["version"], path)
	}
	_, body := getJSON(t, e, "/")
	assert.Equal(t, "production", body["environment"])
}

func TestNewEchoIdempotent(t *testing.T) {
	e := NewEcho(handler.New(defaultConfig()), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)

	_, first := getJSON(t, e, "/api/status")
	_, firstRoot := getJSON(t, e, "/")
	for i := 0; i < 3; i++ {
		_, again := getJSON(t, e, "/api/status")
		assert.Equal(t, first["service"], again["service"])
		assert.Equal(t, first["version"], again["version"])
		assert.GreaterOrEqual(t, again["uptime"].(float64), first["uptime"].(float64))

		_, root := getJSON(t, e, "/")
		assert.Equal(t, firstRoot["message"], root["message"])
	}
}

func TestNewEchoRecoversPanics(t *testing.T) {
	e := NewEcho(handler.New(defaultConfig()), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewEchoLimiterOnlyOnPublicRoutes(t *testing.T) {
	block := func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.NoContent(http.StatusTooManyRequests) }
	}
	e := NewEcho(handler.New(defaultConfig()), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), block)

	code, _ := getJSON(t, e, "/health")
	assert.Equal(t, http.StatusOK, code)
	code, _ = getJSON(t, e, "/api/status")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func startServer(t *testing.T, cfg config.Config, opts ...Option) (*Server, *syncBuffer, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logs := &syncBuffer{}
	opts = append([]Option{
		WithListener(ln),
		WithLogger(logging.NewLogger("info", logs)),
	}, opts...)
	srv := New(cfg, opts...)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	}
	return srv, logs, stop
}

func TestServerRun(t *testing.T) {
	srv, logs, stop := startServer(t, defaultConfig())
	defer stop()

	url := fmt.Sprintf("http://%s/health", srv.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	out := logs.String()
	assert.Contains(t, out, fmt.Sprintf("Server running on port %d", srv.Port()))
	assert.Contains(t, out, "Version: 1.0.0")
	assert.Contains(t, out, "Environment: development")
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestListenWritesStartupLinesAtAnyLevel(t *testing.T) {
	for _, level := range []string{"warn", "error"} {
		t.Run(level, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.LogLevel = level
			logs := &syncBuffer{}
			ln := mustListen(t)
			defer ln.Close()

			srv := New(cfg, WithListener(ln), WithLogger(logging.NewLogger(level, logs)))
			require.NoError(t, srv.Listen())

			out := logs.String()
			assert.Contains(t, out, fmt.Sprintf("Server running on port %d", srv.Port()))
			assert.Contains(t, out, "Version: 1.0.0")
			assert.Contains(t, out, "Environment: development")
		})
	}
}

func TestServerAnnouncesStartup(t *testing.T) {
	cfg := defaultConfig()
	cfg.Broker = config.BrokerConfig{URL: "amqp://broker/", Queue: "service.lifecycle"}

	var got queue.ServiceStartedEvent
	var gotQueue string
	publish := func(_ context.Context, b config.BrokerConfig, ev queue.ServiceStartedEvent) error {
		got = ev
		gotQueue = b.Queue
		return nil
	}

	srv, _, stop := startServer(t, cfg, WithPublisher(publish))
	defer stop()
	srv.Wait()

	assert.Equal(t, "service.lifecycle", gotQueue)
	assert.Equal(t, "SurePay", got.Service)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, srv.Port(), got.Port)
}

func TestServerAnnouncementFailureIsLogged(t *testing.T) {
	cfg := defaultConfig()
	cfg.Broker = config.BrokerConfig{URL: "amqp://broker/", Queue: "service.lifecycle"}
	publish := func(context.Context, config.BrokerConfig, queue.ServiceStartedEvent) error {
		return errors.New("broker down")
	}

	srv, logs, stop := startServer(t, cfg, WithPublisher(publish))
	defer stop()
	srv.Wait()

	assert.Contains(t, logs.String(), "broker down")
}

func TestServerUptimeFromListen(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	srv := New(defaultConfig(),
		WithListener(mustListen(t)),
		WithLogger(logging.NewLogger("error", &bytes.Buffer{})),
		WithClock(clock),
	)
	require.NoError(t, srv.Listen())
	defer srv.ln.Close()

	mu.Lock()
	now = base.Add(3 * time.Second)
	mu.Unlock()

	code, body := getJSON(t, srv.echo, "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 3.0, body["uptime"].(float64), 1e-9)
	assert.Equal(t, "2024-05-01T12:00:03.000Z", body["timestamp"])
}

func TestServeBeforeListen(t *testing.T) {
	srv := New(defaultConfig())
	assert.Error(t, srv.Serve(context.Background()))
}

func TestListenPortInUse(t *testing.T) {
	ln := mustListen(t)
	defer ln.Close()

	cfg := defaultConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	srv := New(cfg, WithLogger(logging.NewLogger("error", &bytes.Buffer{})))

	err := srv.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}
