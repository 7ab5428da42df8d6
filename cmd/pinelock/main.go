// PineLock - Access Control Messaging Core
//
// This is the main entry point for the PineLock server. PineLock keeps
// a fleet of battery-powered door locks in sync over MQTT:
//   - Inbound device frames (status, access, heartbeat, sync, alert)
//   - Credential snapshot distribution to devices
//   - REST API and event stream for dashboards
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/kmush12/PineLock/migrations"

	"github.com/kmush12/PineLock/internal/api"
	"github.com/kmush12/PineLock/internal/configsync"
	"github.com/kmush12/PineLock/internal/events"
	"github.com/kmush12/PineLock/internal/infrastructure/config"
	"github.com/kmush12/PineLock/internal/infrastructure/database"
	"github.com/kmush12/PineLock/internal/infrastructure/influxdb"
	"github.com/kmush12/PineLock/internal/infrastructure/logging"
	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
	"github.com/kmush12/PineLock/internal/lock"
	"github.com/kmush12/PineLock/internal/messaging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PineLock",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	locks := lock.NewSQLiteRepository(db.DB)
	codes := lock.NewSQLiteCodeRepository(db.DB)
	cards := lock.NewSQLiteCardRepository(db.DB)
	logs := lock.NewSQLiteLogRepository(db.DB)
	pending := lock.NewSQLitePendingRepository(db.DB)

	// Event broadcaster for the dashboard stream
	broadcaster := events.NewBroadcaster(cfg.Events.SubscriberBuffer)
	broadcaster.SetLogger(log)
	defer broadcaster.Close()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional telemetry)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
		influxClient = nil
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Credential sync engine
	syncEngine := configsync.NewEngine(configsync.EngineOptions{
		Locks:     locks,
		Codes:     codes,
		Cards:     cards,
		Publisher: mqttClient,
		Logger:    log,
	})

	// Inbound message pipeline: bridge -> dispatcher -> handlers
	registry := messaging.NewRegistry()
	handlers := messaging.NewHandlers(messaging.HandlersOptions{
		Locks:   locks,
		Logs:    logs,
		Pending: pending,
		Syncer:  syncEngine,
		Events:  broadcaster,
		Telem:   influxClient,
		Logger:  log,
	})
	handlers.Register(registry)

	dispatcher := messaging.NewDispatcher(messaging.DispatcherOptions{
		Workers:   cfg.Dispatch.Workers,
		WarnDepth: cfg.Dispatch.QueueWarnDepth,
		Registry:  registry,
		Logger:    log,
	})
	defer func() {
		log.Info("stopping dispatcher")
		dispatcher.Close()
	}()

	bridge := messaging.NewBridge(dispatcher, log)
	if err := bridge.Attach(mqttClient, byte(cfg.MQTT.QoS)); err != nil {
		return fmt.Errorf("attaching message bridge: %w", err)
	}
	log.Info("message bridge attached", "workers", cfg.Dispatch.Workers)

	// Push a fresh snapshot to every device so the fleet converges on
	// whatever changed while the server was down.
	if syncErr := syncEngine.SyncAll(ctx); syncErr != nil {
		log.Warn("startup fleet sync incomplete", "error", syncErr)
	} else {
		log.Info("startup fleet sync complete")
	}

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		Pending:     cfg.Pending,
		Logger:      log,
		Locks:       locks,
		Codes:       codes,
		Cards:       cards,
		Logs:        logs,
		PendingRepo: pending,
		Commander:   mqttClient,
		Syncer:      syncEngine,
		Events:      broadcaster,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Dispatcher (drains queued frames)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (publishes the offline state message)
	// 5. Event broadcaster
	// 6. Database

	log.Info("PineLock stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PINELOCK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PINELOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The InfluxDB client may be nil when telemetry is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
