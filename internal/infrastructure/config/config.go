package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for LedLink Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	API        APIConfig        `yaml:"api"`
	RequestLog RequestLogConfig `yaml:"request_log"`
	Output     OutputConfig     `yaml:"output"`
	Wireless   WirelessConfig   `yaml:"wireless"`
	Serial     SerialConfig     `yaml:"serial"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig identifies this node on the network and in exported telemetry.
type DeviceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// PushInterval is how often (seconds) status and client views are pushed
	// to WebSocket subscribers.
	PushInterval int `yaml:"push_interval"`

	// PanelDir serves the control page from disk instead of the embedded copy.
	PanelDir string `yaml:"panel_dir"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// RequestLogConfig sizes the in-memory request history.
type RequestLogConfig struct {
	Capacity           int `yaml:"capacity"`
	MaxPathLength      int `yaml:"max_path_length"`
	MaxUserAgentLength int `yaml:"max_user_agent_length"`
}

// Output driver names.
const (
	OutputDriverMemory = "memory"
	OutputDriverMQTT   = "mqtt"
	OutputDriverSerial = "serial"
)

// OutputConfig selects how LED commands reach the hardware.
type OutputConfig struct {
	// Driver is one of "memory", "mqtt" or "serial".
	Driver string `yaml:"driver"`

	// InitialState is the state driven on startup: "on" or "off".
	InitialState string `yaml:"initial_state"`
}

// Wireless source names.
const (
	WirelessSourceStatic = "static"
	WirelessSourceProc   = "procfs"
	WirelessSourceMQTT   = "mqtt"
	WirelessSourceSerial = "serial"
)

// WirelessConfig selects where the signal strength reading comes from.
type WirelessConfig struct {
	Source     string `yaml:"source"`
	Interface  string `yaml:"interface"`
	StaticRSSI int    `yaml:"static_rssi"`
	ProcPath   string `yaml:"proc_path"`
}

// SerialConfig describes the USB serial link to the microcontroller board.
type SerialConfig struct {
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	Timeout int    `yaml:"timeout_ms"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled        bool                `yaml:"enabled"`
	Broker         MQTTBrokerConfig    `yaml:"broker"`
	Auth           MQTTAuthConfig      `yaml:"auth"`
	QoS            int                 `yaml:"qos"`
	Reconnect      MQTTReconnectConfig `yaml:"reconnect"`
	StatusInterval int                 `yaml:"status_interval"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// ExportInterval is how often (seconds) a status point is written.
	ExportInterval int `yaml:"export_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LEDLINK_SECTION_KEY
// For example: LEDLINK_API_PORT, LEDLINK_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// The request log sizes match the firmware: 10 entries, 64 byte paths, 128 byte user agents.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   "ledlink-001",
			Name: "LedLink",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			PushInterval: 5,
		},
		RequestLog: RequestLogConfig{
			Capacity:           10,
			MaxPathLength:      64,
			MaxUserAgentLength: 128,
		},
		Output: OutputConfig{
			Driver:       OutputDriverMemory,
			InitialState: "off",
		},
		Wireless: WirelessConfig{
			Source:     WirelessSourceStatic,
			Interface:  "wlan0",
			StaticRSSI: -55,
			ProcPath:   "/proc/net/wireless",
		},
		Serial: SerialConfig{
			Port:    "/dev/ttyUSB0",
			Baud:    115200,
			Timeout: 2000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ledlink-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			StatusInterval: 30,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:      100,
			FlushInterval:  10,
			ExportInterval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LEDLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("LEDLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LEDLINK_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("LEDLINK_PANEL_DIR"); v != "" {
		cfg.API.PanelDir = v
	}

	// Output / serial
	if v := os.Getenv("LEDLINK_OUTPUT_DRIVER"); v != "" {
		cfg.Output.Driver = v
	}
	if v := os.Getenv("LEDLINK_SERIAL_PORT"); v != "" {
		cfg.Serial.Port = v
	}

	// Wireless
	if v := os.Getenv("LEDLINK_WIRELESS_SOURCE"); v != "" {
		cfg.Wireless.Source = v
	}
	if v := os.Getenv("LEDLINK_WIRELESS_INTERFACE"); v != "" {
		cfg.Wireless.Interface = v
	}

	// MQTT
	if v := os.Getenv("LEDLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LEDLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LEDLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LEDLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("LEDLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.RequestLog.Capacity < 1 {
		errs = append(errs, "request_log.capacity must be at least 1")
	}
	if c.RequestLog.MaxPathLength < 1 {
		errs = append(errs, "request_log.max_path_length must be at least 1")
	}
	if c.RequestLog.MaxUserAgentLength < 1 {
		errs = append(errs, "request_log.max_user_agent_length must be at least 1")
	}

	switch c.Output.Driver {
	case OutputDriverMemory, OutputDriverSerial:
	case OutputDriverMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "output.driver \"mqtt\" requires mqtt.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("output.driver %q is not one of memory, mqtt, serial", c.Output.Driver))
	}

	switch strings.ToLower(c.Output.InitialState) {
	case "on", "off":
	default:
		errs = append(errs, "output.initial_state must be \"on\" or \"off\"")
	}

	switch c.Wireless.Source {
	case WirelessSourceStatic, WirelessSourceProc, WirelessSourceSerial:
	case WirelessSourceMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "wireless.source \"mqtt\" requires mqtt.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("wireless.source %q is not one of static, procfs, mqtt, serial", c.Wireless.Source))
	}

	if c.UsesSerial() {
		if c.Serial.Port == "" {
			errs = append(errs, "serial.port is required when a serial driver or source is selected")
		}
		if c.Serial.Baud <= 0 {
			errs = append(errs, "serial.baud must be positive")
		}
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// UsesSerial reports whether the serial link must be opened at startup.
func (c *Config) UsesSerial() bool {
	return c.Output.Driver == OutputDriverSerial || c.Wireless.Source == WirelessSourceSerial
}

// ReadTimeout returns the HTTP read timeout (also used for headers).
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout returns the keep-alive idle timeout.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
