// Package api provides the HTTP REST API and event stream server for
// PineLock.
//
// It exposes lock registry operations, credential management, access
// logs, pending device review, and a server-sent event stream to the
// management dashboard.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kmush12/PineLock/internal/events"
	"github.com/kmush12/PineLock/internal/infrastructure/config"
	"github.com/kmush12/PineLock/internal/infrastructure/logging"
	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
	"github.com/kmush12/PineLock/internal/lock"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Commander publishes frames to individual devices.
// Satisfied by *mqtt.Client.
type Commander interface {
	PublishDevice(deviceID, messageType string, payload any) error
	IsConnected() bool
}

var _ Commander = (*mqtt.Client)(nil)

// Syncer pushes credential snapshots to devices.
// Satisfied by *configsync.Engine.
type Syncer interface {
	SyncDevice(ctx context.Context, deviceID string) error
	SyncAll(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	Pending     config.PendingConfig
	Logger      *logging.Logger
	Locks       lock.Repository
	Codes       lock.CodeRepository
	Cards       lock.CardRepository
	Logs        lock.LogRepository
	PendingRepo lock.PendingRepository
	Commander   Commander // optional: commands return 503 without it
	Syncer      Syncer    // required
	Events      *events.Broadcaster
	Version     string
}

// Server is the HTTP API server for PineLock.
//
// It manages the HTTP listener, routes, middleware, and the event
// stream. The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	pendingCfg config.PendingConfig
	logger     *logging.Logger
	locks      lock.Repository
	codes      lock.CodeRepository
	cards      lock.CardRepository
	logs       lock.LogRepository
	pending    lock.PendingRepository
	commander  Commander
	syncer     Syncer
	events     *events.Broadcaster
	version    string
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Locks == nil {
		return nil, fmt.Errorf("lock repository is required")
	}
	if deps.Syncer == nil {
		return nil, fmt.Errorf("sync engine is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event broadcaster is required")
	}
	// Commander is optional; commands return 503 while MQTT is down.

	return &Server{
		cfg:        deps.Config,
		pendingCfg: deps.Pending,
		logger:     deps.Logger,
		locks:      deps.Locks,
		codes:      deps.Codes,
		cards:      deps.Cards,
		logs:       deps.Logs,
		pending:    deps.PendingRepo,
		commander:  deps.Commander,
		syncer:     deps.Syncer,
		events:     deps.Events,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; stop it with Close().
// No write timeout is set on the server because the event stream holds
// its response open indefinitely.
func (s *Server) Start(ctx context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
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
