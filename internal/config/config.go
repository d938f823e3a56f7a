package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. DASHBOARD_SERVER_PORT.
const EnvPrefix = "DASHBOARD"

// FileEnv names the variable holding an optional YAML config file path.
const FileEnv = EnvPrefix + "_CONFIG_FILE"

// Config field names map to environment keys word by word, so Engine.TopN
// is read from DASHBOARD_ENGINE_TOP_N.
type Config struct {
	Server    ServerConfig    `yaml:"server" split_words:"true"`
	Data      DataConfig      `yaml:"data" split_words:"true"`
	Engine    EngineConfig    `yaml:"engine" split_words:"true"`
	Logger    LoggerConfig    `yaml:"logger" split_words:"true"`
	Security  SecurityConfig  `yaml:"security" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
}

// DataConfig describes the dataset loaded at startup. An empty SourceFile
// starts the service with no data.
type DataConfig struct {
	SourceFile     string `yaml:"source_file" split_words:"true"`
	Format         string `yaml:"format" split_words:"true" validate:"omitempty,oneof=csv xlsx json"`
	BatchSize      int    `yaml:"batch_size" split_words:"true" validate:"min=1"`
	Workers        int    `yaml:"workers" split_words:"true" validate:"min=1,max=256"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" split_words:"true" validate:"min=1"`
}

type EngineConfig struct {
	TopN      int `yaml:"top_n" split_words:"true" validate:"min=1,max=100"`
	CacheSize int `yaml:"cache_size" split_words:"true" validate:"min=1"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit" split_words:"true"`
	RateLimitRPS    float64  `yaml:"rate_limit_rps" split_words:"true" validate:"gt=0"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" split_words:"true" validate:"min=1"`
	AllowedOrigins  []string `yaml:"allowed_origins" split_words:"true"`
	TrustedProxies  []string `yaml:"trusted_proxies" split_words:"true" validate:"dive,ip|cidr"`
}

type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" split_words:"true" validate:"required"`
	TracingEnabled bool    `yaml:"tracing_enabled" split_words:"true"`
	Exporter       string  `yaml:"exporter" split_words:"true" validate:"oneof=stdout none"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true" validate:"min=0,max=1"`
	MetricsEnabled bool    `yaml:"metrics_enabled" split_words:"true"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			SourceFile:     "data/sales.csv",
			BatchSize:      5000,
			Workers:        8,
			MaxUploadBytes: 32 << 20,
		},
		Engine: EngineConfig{
			TopN:      8,
			CacheSize: 128,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  20,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "salesboard",
			Exporter:       "none",
			SampleRatio:    1,
			MetricsEnabled: true,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// DASHBOARD_CONFIG_FILE if set, then DASHBOARD_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
