package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MeterFake   = "fake"
	MeterPlugin = "plugin"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Meter     MeterConfig     `yaml:"meter"`
	Storage   StorageConfig   `yaml:"storage"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	Cycles         int           `yaml:"cycles"`
	UpdateInterval time.Duration `yaml:"updateInterval"`
}

type MeterConfig struct {
	Kind           string        `yaml:"kind"`
	PluginBinary   string        `yaml:"pluginBinary"`
	SwitchDuration time.Duration `yaml:"switchDuration"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type ClientConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"serviceName"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:         ":3289",
			Cycles:         3,
			UpdateInterval: 100 * time.Millisecond,
		},
		Meter: MeterConfig{
			Kind:           MeterFake,
			SwitchDuration: 2 * time.Second,
		},
		Storage:   StorageConfig{DBPath: "rescollect.db"},
		Client:    ClientConfig{BaseURL: "http://localhost:3289", Timeout: 10 * time.Second},
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: "rescollect"},
	}
}

// Load reads an optional YAML file, then applies a .env file (if present) and
// RESCOLLECT_* environment overrides on top of it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Listen = envStr("RESCOLLECT_LISTEN", cfg.Server.Listen)
	cfg.Server.Cycles = envInt("RESCOLLECT_CYCLES", cfg.Server.Cycles)
	cfg.Server.UpdateInterval = envDuration("RESCOLLECT_UPDATE_INTERVAL", cfg.Server.UpdateInterval)
	cfg.Meter.Kind = envStr("RESCOLLECT_METER", cfg.Meter.Kind)
	cfg.Meter.PluginBinary = envStr("RESCOLLECT_METER_PLUGIN", cfg.Meter.PluginBinary)
	cfg.Meter.SwitchDuration = envDuration("RESCOLLECT_METER_SWITCH", cfg.Meter.SwitchDuration)
	cfg.Storage.DBPath = envStr("RESCOLLECT_DB_PATH", cfg.Storage.DBPath)
	cfg.Client.BaseURL = envStr("RESCOLLECT_BASE_URL", cfg.Client.BaseURL)
	cfg.Client.Timeout = envDuration("RESCOLLECT_CLIENT_TIMEOUT", cfg.Client.Timeout)
	cfg.Log.Level = envStr("RESCOLLECT_LOG_LEVEL", cfg.Log.Level)
	cfg.Telemetry.OTLPEndpoint = envStr("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.ServiceName = envStr("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Cycles <= 0 {
		errs = append(errs, fmt.Errorf("config: server.cycles must be positive"))
	}
	if c.Server.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("config: server.updateInterval must be positive"))
	}
	switch c.Meter.Kind {
	case MeterFake:
		if c.Meter.SwitchDuration < time.Second {
			errs = append(errs, fmt.Errorf("config: meter.switchDuration must be at least 1s"))
		}
	case MeterPlugin:
		if c.Meter.PluginBinary == "" {
			errs = append(errs, fmt.Errorf("config: meter.pluginBinary is required for plugin meter"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown meter kind %q", c.Meter.Kind))
	}
	if strings.TrimSpace(c.Client.BaseURL) == "" {
		errs = append(errs, fmt.Errorf("config: client.baseURL is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a textual log level onto slog.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log level %q", level)
	}
	return l, nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
