// LedLink Core - network-attached LED controller
//
// This is the main entry point for the LedLink Core application. It serves
// the control page and its JSON endpoints, drives the LED through the
// configured output driver, and optionally mirrors state to MQTT and
// telemetry to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nerrad567/ledlink-core/internal/api"
	"github.com/nerrad567/ledlink-core/internal/clients"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/config"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/serial"
	"github.com/nerrad567/ledlink-core/internal/output"
	"github.com/nerrad567/ledlink-core/internal/requestlog"
	"github.com/nerrad567/ledlink-core/internal/status"
	"github.com/nerrad567/ledlink-core/internal/statuspublish"
	"github.com/nerrad567/ledlink-core/internal/telemetry"
	"github.com/nerrad567/ledlink-core/internal/uptime"
	"github.com/nerrad567/ledlink-core/internal/wireless"
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

// configEnvVar names the environment variable that overrides the config path.
const configEnvVar = "LEDLINK_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting LedLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A .env file is optional; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Info("no config file found, using defaults")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"device_id", cfg.Device.ID,
	)

	clock := uptime.NewClock()
	requests := requestlog.New(requestlog.Options{
		Capacity:           cfg.RequestLog.Capacity,
		MaxPathLength:      cfg.RequestLog.MaxPathLength,
		MaxUserAgentLength: cfg.RequestLog.MaxUserAgentLength,
		Clock:              clock,
	})

	checks := make(map[string]api.HealthChecker)

	// Open the serial link (if a serial driver or source is selected)
	var link *serial.Link
	if cfg.UsesSerial() {
		link, err = serial.Open(cfg.Serial)
		if err != nil {
			return fmt.Errorf("opening serial link: %w", err)
		}
		defer func() {
			log.Info("closing serial link")
			if closeErr := link.Close(); closeErr != nil {
				log.Error("error closing serial link", "error", closeErr)
			}
		}()
		checks["serial"] = link
		log.Info("serial link open", "port", cfg.Serial.Port, "baud", cfg.Serial.Baud)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, cfg.Device.ID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		checks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Output controller
	driver, err := newOutputDriver(cfg, link, mqttClient)
	if err != nil {
		return err
	}
	initial, err := output.ParseState(cfg.Output.InitialState)
	if err != nil {
		return fmt.Errorf("output.initial_state: %w", err)
	}
	ctrl := output.NewController(driver, initial, log)
	if initErr := ctrl.Init(ctx); initErr != nil {
		return fmt.Errorf("initialising LED output: %w", initErr)
	}
	log.Info("LED output ready", "driver", cfg.Output.Driver, "state", ctrl.State())

	// Wireless signal source
	signalSource, err := newWirelessSource(cfg, link, mqttClient)
	if err != nil {
		return err
	}
	log.Info("wireless source ready", "source", cfg.Wireless.Source)
	if cfg.Wireless.Source == config.WirelessSourceMQTT {
		defer releaseSubscription(mqttClient, mqttClient.Topics().RSSI(), log)
	}

	statusAgg := status.New(ctrl, signalSource, clock, log)
	clientsAgg := clients.New(requests)

	// HTTP server
	deps := api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Requests: requests,
		Output:   ctrl,
		Status:   statusAgg,
		Clients:  clientsAgg,
		Clock:    clock,
		Checks:   checks,
		Version:  version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
		deps.OnLEDChange = ledStatePublisher(mqttClient, mqttClient.Topics().LEDState(), log)
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Retained status on MQTT
	if mqttClient != nil {
		publisher := statuspublish.New(statuspublish.Config{
			DeviceID:  cfg.Device.ID,
			Topic:     mqttClient.Topics().Status(),
			Interval:  time.Duration(cfg.MQTT.StatusInterval) * time.Second,
			Publisher: mqttClient,
			Status:    statusAgg,
			Counter:   requests,
			Logger:    log,
		})
		publisher.Start(ctx)
		defer publisher.Stop()
	}

	// Telemetry export to InfluxDB
	if influxClient != nil {
		exporter := telemetry.New(telemetry.Config{
			DeviceID: cfg.Device.ID,
			Interval: time.Duration(cfg.InfluxDB.ExportInterval) * time.Second,
			Writer:   influxClient,
			Status:   statusAgg,
			Counter:  requests,
			Logger:   log,
		})
		exporter.Start(ctx)
		defer exporter.Stop()
	}

	log.Info("initialisation complete, waiting for shutdown signal", "address", server.Addr())

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: telemetry, status publisher,
	// API server, InfluxDB, MQTT, serial link.

	log.Info("LedLink Core stopped", "total_requests", requests.Total())
	return nil
}

// getConfigPath returns the configuration file path.
//
// LEDLINK_CONFIG must name an existing file when set. Without it the default
// path is used if present; otherwise "" selects built-in defaults.
func getConfigPath() (string, error) {
	if path := os.Getenv(configEnvVar); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	if _, err := os.Stat(defaultConfigPath); err != nil {
		return "", nil //nolint:nilerr // missing default config means built-in defaults
	}
	return defaultConfigPath, nil
}

// retainedPublisher is the part of *mqtt.Client used to report LED state.
type retainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// ledStatePublisher returns a hook that publishes each applied state as the
// bare string ON or OFF.
func ledStatePublisher(client retainedPublisher, topic string, log *logging.Logger) func(output.State) {
	return func(s output.State) {
		if err := client.PublishRetained(topic, []byte(s)); err != nil {
			log.Warn("publishing LED state failed", "topic", topic, "error", err)
		}
	}
}

// unsubscriber is the part of *mqtt.Client used at shutdown.
type unsubscriber interface {
	Unsubscribe(topic string) error
}

// releaseSubscription drops topic before the client disconnects. A broker that
// is already gone is not worth a warning.
func releaseSubscription(client unsubscriber, topic string, log *logging.Logger) {
	err := client.Unsubscribe(topic)
	switch {
	case err == nil:
		log.Info("MQTT subscription released", "topic", topic)
	case errors.Is(err, mqtt.ErrNotConnected):
		log.Debug("MQTT subscription dropped while offline", "topic", topic)
	default:
		log.Warn("releasing MQTT subscription failed", "topic", topic, "error", err)
	}
}

// newOutputDriver builds the LED driver named by output.driver.
func newOutputDriver(cfg *config.Config, link *serial.Link, mqttClient *mqtt.Client) (output.Driver, error) {
	switch cfg.Output.Driver {
	case config.OutputDriverMemory:
		return output.NewMemoryDriver(), nil
	case config.OutputDriverSerial:
		if link == nil {
			return nil, errors.New("serial output driver requires an open serial link")
		}
		return output.NewSerialDriver(link), nil
	case config.OutputDriverMQTT:
		if mqttClient == nil {
			return nil, errors.New("mqtt output driver requires an MQTT connection")
		}
		return output.NewMQTTDriver(mqttClient, mqttClient.Topics().LEDCommand()), nil
	default:
		return nil, fmt.Errorf("unknown output driver %q", cfg.Output.Driver)
	}
}

// newWirelessSource builds the signal source named by wireless.source.
// The MQTT source is fed by a subscription on the device's RSSI topic.
func newWirelessSource(cfg *config.Config, link *serial.Link, mqttClient *mqtt.Client) (wireless.Source, error) {
	switch cfg.Wireless.Source {
	case config.WirelessSourceStatic:
		return wireless.Static(cfg.Wireless.StaticRSSI), nil
	case config.WirelessSourceProc:
		return wireless.ProcNet{Path: cfg.Wireless.ProcPath, Interface: cfg.Wireless.Interface}, nil
	case config.WirelessSourceSerial:
		if link == nil {
			return nil, errors.New("serial wireless source requires an open serial link")
		}
		return wireless.NewSerialSource(link), nil
	case config.WirelessSourceMQTT:
		if mqttClient == nil {
			return nil, errors.New("mqtt wireless source requires an MQTT connection")
		}
		src := wireless.NewMQTTSource(wireless.DefaultMaxAge)
		topic := mqttClient.Topics().RSSI()
		if err := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), src.Handle); err != nil {
			return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown wireless source %q", cfg.Wireless.Source)
	}
}
