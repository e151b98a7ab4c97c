// ID28 Core - beamline device catalog and queue-server host supervisor.
//
// This is the main entry point for the long-running core service. It
// loads the device declaration file, builds the device catalog through
// the factory registry, supervises the bluesky queue-server host, and
// publishes catalog and host status to the beamline MQTT bus.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aps28id/id28-core/migrations"

	"github.com/aps28id/id28-core/internal/device"
	"github.com/aps28id/id28-core/internal/factory"
	"github.com/aps28id/id28-core/internal/infrastructure/config"
	"github.com/aps28id/id28-core/internal/infrastructure/database"
	"github.com/aps28id/id28-core/internal/infrastructure/influxdb"
	"github.com/aps28id/id28-core/internal/infrastructure/logging"
	"github.com/aps28id/id28-core/internal/infrastructure/mqtt"
	"github.com/aps28id/id28-core/internal/qserver"
	"github.com/aps28id/id28-core/internal/runlog"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// metricsInterval is how often host metrics are written to InfluxDB.
const metricsInterval = 60 * time.Second

func main() {
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
	log.Info("starting ID28 core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	events := runlog.NewSQLiteRepository(db.DB)

	// Load device declarations and build the catalog
	devFile, err := device.Load(cfg.Devices.Path)
	if err != nil {
		return fmt.Errorf("loading device file: %w", err)
	}
	log.Info("device file loaded",
		"path", cfg.Devices.Path,
		"tags", len(devFile.Tags()),
		"records", len(devFile.Records()),
	)

	registry := factory.NewRegistry()
	registry.SetLogger(log.With("component", "factory"))

	catalog, err := registry.Build(devFile)
	if err != nil {
		return fmt.Errorf("building device catalog: %w", err)
	}
	stats := catalog.Stats()
	log.Info("device catalog built",
		"devices", stats.Total,
		"simulated", stats.Simulated,
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		if pubErr := publishCatalog(mqttClient, catalog); pubErr != nil {
			log.Warn("publishing catalog failed", "error", pubErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the queue-server host (if managed)
	var hostManager *qserver.Manager
	if cfg.QServer.Managed {
		hostManager, err = startQServer(ctx, cfg, events, mqttClient, influxClient, log)
		if err != nil {
			return fmt.Errorf("starting queue-server host: %w", err)
		}
		defer func() {
			log.Info("stopping queue-server host")
			if stopErr := hostManager.Stop(); stopErr != nil {
				log.Error("error stopping queue-server host", "error", stopErr)
			}
		}()
	} else {
		log.Info("queue-server host is unmanaged")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Periodic host metrics
	if influxClient != nil && hostManager != nil {
		go writeHostMetrics(ctx, hostManager, influxClient, cfg.QServer.Name)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	log.Info("ID28 core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ID28_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ID28_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// publishCatalog publishes the catalog summary and per-device records
// as retained messages.
func publishCatalog(client *mqtt.Client, catalog *device.Catalog) error {
	topics := mqtt.Topics{}

	summary, err := json.Marshal(catalog.Stats())
	if err != nil {
		return fmt.Errorf("marshalling catalog summary: %w", err)
	}
	if err := client.PublishRetained(topics.CatalogSummary(), summary); err != nil {
		return err
	}

	for _, dev := range catalog.List() {
		payload, err := json.Marshal(dev)
		if err != nil {
			return fmt.Errorf("marshalling device %s: %w", dev.Name, err)
		}
		if err := client.PublishRetained(topics.CatalogDevice(dev.Name), payload); err != nil {
			return err
		}
	}
	return nil
}

// startQServer initialises and starts the supervised queue-server host.
//
// Lifecycle transitions are recorded in the run log and, when available,
// published to MQTT and written to InfluxDB.
func startQServer(ctx context.Context, cfg *config.Config, events runlog.Repository, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*qserver.Manager, error) {
	qsCfg := qserver.Config{
		Managed:             cfg.QServer.Managed,
		Name:                cfg.QServer.Name,
		Binary:              cfg.QServer.Binary,
		ConfigPath:          cfg.QServer.ConfigPath,
		StateDir:            cfg.QServer.StateDir,
		ControlPort:         cfg.QServer.ControlPort,
		InfoPort:            cfg.QServer.InfoPort,
		ExtraArgs:           cfg.QServer.ExtraArgs,
		StartupTimeout:      cfg.GetStartupTimeout(),
		RestartOnFailure:    cfg.QServer.RestartOnFailure,
		RestartDelay:        cfg.GetRestartDelay(),
		MaxRestartAttempts:  cfg.QServer.MaxRestartAttempts,
		HealthCheckInterval: cfg.QServer.HealthCheckInterval,
	}
	if err := qsCfg.Validate(); err != nil {
		return nil, err
	}

	manager := qserver.NewManager(qsCfg)
	manager.SetLogger(log.With("component", "qserver"))

	instance := qsCfg.Name
	topics := mqtt.Topics{}

	// Pin the supervision vocabulary to the run log's action constants so
	// the stored history cannot drift from what the manager emits.
	actions := map[string]string{
		qserver.ActionStarted:   runlog.ActionStarted,
		qserver.ActionStopped:   runlog.ActionStopped,
		qserver.ActionRestarted: runlog.ActionRestarted,
		qserver.ActionFailed:    runlog.ActionFailed,
	}
	manager.SetOnEvent(func(action string, pid int) {
		if mapped, ok := actions[action]; ok {
			action = mapped
		}
		ev := &runlog.Event{Instance: instance, Action: action, PID: pid}
		recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := events.Record(recCtx, ev); err != nil {
			log.Error("recording supervision event", "action", action, "error", err)
		}

		if mqttClient != nil {
			payload := fmt.Sprintf(`{"instance":"%s","action":"%s","pid":%d,"timestamp":"%s"}`,
				instance, action, pid, time.Now().UTC().Format(time.RFC3339))
			if err := mqttClient.PublishString(topics.QServerEvent(instance, action), payload, 1, false); err != nil {
				log.Warn("publishing host event", "action", action, "error", err)
			}
		}

		if influxClient != nil {
			influxClient.WriteLifecycleEvent(instance, action, pid)
		}
	})

	if err := manager.Start(ctx); err != nil {
		return nil, err
	}

	if mqttClient != nil {
		payload := fmt.Sprintf(`{"instance":"%s","running":true,"pid":%d,"timestamp":"%s"}`,
			instance, manager.PID(), time.Now().UTC().Format(time.RFC3339))
		if err := mqttClient.PublishString(topics.QServerStatus(instance), payload, 1, true); err != nil {
			log.Warn("publishing host status", "error", err)
		}
	}

	return manager, nil
}

// writeHostMetrics periodically writes supervision metrics until ctx
// is cancelled.
func writeHostMetrics(ctx context.Context, manager *qserver.Manager, influxClient *influxdb.Client, instance string) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := manager.Stats()
			running := 0.0
			if stats.Status == "running" {
				running = 1.0
			}
			influxClient.WriteHostMetric(instance, "running", running)
			influxClient.WriteHostMetric(instance, "uptime_seconds", stats.Uptime.Seconds())
			influxClient.WriteHostMetric(instance, "restart_count", float64(stats.RestartCount))
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
