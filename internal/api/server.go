package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/ledlink-core/internal/clients"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/config"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/output"
	"github.com/nerrad567/ledlink-core/internal/requestlog"
	"github.com/nerrad567/ledlink-core/internal/status"
	"github.com/nerrad567/ledlink-core/internal/uptime"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultPushInterval is used when the config leaves push_interval at zero.
const defaultPushInterval = 5 * time.Second

// HealthChecker is implemented by optional components reported on /api/v1/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MQTTReporter is implemented by the MQTT client.
type MQTTReporter interface {
	IsConnected() bool
	SubscriptionCount() int
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Requests *requestlog.Log
	Output   *output.Controller
	Status   *status.Aggregator
	Clients  *clients.Aggregator
	Clock    uptime.Source

	// MQTT is optional; nil reports as disconnected in metrics.
	MQTT MQTTReporter

	// Checks are optional named components (mqtt, influxdb, serial).
	Checks map[string]HealthChecker

	// OnLEDChange is called from the push loop after the WebSocket broadcast
	// for a state change. Changes arriving faster than the broadcast are
	// coalesced and only the latest state is reported.
	OnLEDChange func(output.State)

	Version string
}

// Server is the HTTP server for LedLink Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	requests *requestlog.Log
	output   *output.Controller
	status   *status.Aggregator
	clients  *clients.Aggregator
	clock    uptime.Source
	mqtt     MQTTReporter
	checks   map[string]HealthChecker
	onLED    func(output.State)
	version  string

	server   *http.Server
	listener net.Listener
	hub      *Hub
	changed  chan struct{}
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Requests == nil {
		return nil, fmt.Errorf("request log is required")
	}
	if deps.Output == nil {
		return nil, fmt.Errorf("output controller is required")
	}
	if deps.Status == nil || deps.Clients == nil {
		return nil, fmt.Errorf("status and clients aggregators are required")
	}
	if deps.Clock == nil {
		deps.Clock = uptime.NewClock()
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		requests: deps.Requests,
		output:   deps.Output,
		status:   deps.Status,
		clients:  deps.Clients,
		clock:    deps.Clock,
		mqtt:     deps.MQTT,
		checks:   deps.Checks,
		onLED:    deps.OnLEDChange,
		version:  deps.Version,
	}
	s.hub = NewHub(s.logger)
	s.changed = make(chan struct{}, 1)

	return s, nil
}

// Start binds the listener and serves in a background goroutine.
//
// It also starts the WebSocket push loop and pushes a fresh status view
// whenever the LED state changes. The server can be stopped with Close().
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	s.listener = ln

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.pushLoop(srvCtx)

	// Runs under the controller's command lock; the push loop does the work.
	s.output.SetOnChange(func(output.State) {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.output.SetOnChange(nil)

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// pushInterval returns the configured WebSocket push interval.
func (s *Server) pushInterval() time.Duration {
	if s.cfg.PushInterval <= 0 {
		return defaultPushInterval
	}
	return time.Duration(s.cfg.PushInterval) * time.Second
}
