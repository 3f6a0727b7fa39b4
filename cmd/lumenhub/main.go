// Lumen Hub Core - multi-bridge smart lighting aggregation.
//
// This is the main entry point. It loads configuration, opens the bridge
// store, wires the Hue provider, aggregation service and event bus, and
// serves the HTTP API until interrupted.
//
// Usage:
//
//	lumenhub [-config path]
//	lumenhub -token <user-id>   print a development access token and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/lumenhub-core/internal/aggregate"
	"github.com/nerrad567/lumenhub-core/internal/api"
	"github.com/nerrad567/lumenhub-core/internal/auth"
	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/bridges/hue"
	"github.com/nerrad567/lumenhub-core/internal/events"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/config"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/database"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/metrics"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/lumenhub-core/internal/provider"
	"github.com/nerrad567/lumenhub-core/internal/relay"
	"github.com/nerrad567/lumenhub-core/migrations"
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
	configFlag := flag.String("config", "", "path to config file (default $LUMENHUB_CONFIG or "+defaultConfigPath+")")
	tokenFor := flag.String("token", "", "print a development access token for this user id and exit")
	flag.Parse()

	configPath := getConfigPath(*configFlag)

	if *tokenFor != "" {
		if err := printToken(os.Stdout, configPath, *tokenFor); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumen Hub Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
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

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)

	m := metrics.New()
	bus := events.NewBus(cfg.Events.Capacity, events.WithObserver(m))
	defer bus.Close()

	// One HTTP client is shared by every bridge binding
	hueProvider := hue.NewProvider(
		&http.Client{Timeout: cfg.GetHueRequestTimeout()},
		cfg.Hue.AppID,
		log,
		hue.WithObserver(m),
	)
	registry := provider.NewRegistry(hueProvider)
	service := aggregate.New(bridge.NewSQLiteRepository(db.DB), registry, bus, log)
	log.Info("aggregation service ready", "providers", registry.Names())

	deps := api.Deps{
		Config:   cfg.API,
		Stream:   cfg.Stream,
		Security: cfg.Security,
		Logger:   log,
		DB:       db,
		Service:  service,
		Bus:      bus,
		Metrics:  m,
		Version:  version,
	}
	var relayOpts []relay.Option

	// MQTT mirror (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
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

		deps.MQTT = mqttClient
		relayOpts = append(relayOpts, relay.WithMQTT(mqttClient))
	} else {
		log.Info("MQTT disabled")
	}

	// State history (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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

		deps.InfluxDB = influxClient
		relayOpts = append(relayOpts, relay.WithHistory(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if mirror := relay.New(bus, log, relayOpts...); mirror.Enabled() {
		g.Go(func() error {
			return mirror.Run(gctx)
		})
	}

	if err := server.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")

		// Closing the bus ends every open stream so Shutdown is not held up
		bus.Close()
		return server.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Deferred Close() calls run in reverse order:
	// InfluxDB, MQTT, bus, database
	log.Info("Lumen Hub Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// The -config flag wins, then LUMENHUB_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("LUMENHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// printToken mints an access token for userID signed with the configured
// secret. Identity issuance is external; this exists for local testing.
func printToken(w io.Writer, configPath, userID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ttl := time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	token, err := auth.GenerateAccessToken(userID, cfg.Security.JWT.Secret, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	_, err = fmt.Fprintln(w, token)
	return err
}
