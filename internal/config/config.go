package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. NEXUS_SERVER_PORT.
const EnvPrefix = "NEXUS"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Learning   LearningConfig   `yaml:"learning" envconfig:"LEARNING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Sheets     SheetsConfig     `yaml:"sheets" envconfig:"SHEETS"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	ResultCacheSize int           `yaml:"result_cache_size" envconfig:"RESULT_CACHE_SIZE"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ValidationConfig tunes the validation pipeline.
type ValidationConfig struct {
	SampleSize        int     `yaml:"sample_size" envconfig:"SAMPLE_SIZE"`
	MappingThreshold  int     `yaml:"mapping_threshold" envconfig:"MAPPING_THRESHOLD"`
	LearningThreshold int     `yaml:"learning_threshold" envconfig:"LEARNING_THRESHOLD"`
	FlagThreshold     int     `yaml:"flag_threshold" envconfig:"FLAG_THRESHOLD"`
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold" envconfig:"FUZZY_THRESHOLD"`
	MaxAffectedRows   int     `yaml:"max_affected_rows" envconfig:"MAX_AFFECTED_ROWS"`
	HeaderScanRows    int     `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS"`
	MaxFileBytes      int64   `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES"`
}

// LearningConfig selects the firm taxonomy store.
type LearningConfig struct {
	Driver      string `yaml:"driver" envconfig:"DRIVER"`
	DSN         string `yaml:"dsn" envconfig:"DSN"`
	DefaultFirm string `yaml:"default_firm" envconfig:"DEFAULT_FIRM"`
}

// TelemetryConfig contains OpenTelemetry exporter settings
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// SheetsConfig configures the Google Sheets reader.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration: defaults, then the YAML file if one exists, then
// NEXUS_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate checks ranges and normalizes enumerations
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.ResultCacheSize <= 0 {
		return fmt.Errorf("result cache size must be positive")
	}

	v := c.Validation
	if v.SampleSize <= 0 {
		return fmt.Errorf("validation sample size must be positive")
	}
	for name, th := range map[string]int{
		"mapping_threshold":  v.MappingThreshold,
		"learning_threshold": v.LearningThreshold,
		"flag_threshold":     v.FlagThreshold,
	} {
		if th < 0 || th > 100 {
			return fmt.Errorf("validation %s must be within 0..100, got %d", name, th)
		}
	}
	if v.FuzzyThreshold <= 0 || v.FuzzyThreshold > 1 {
		return fmt.Errorf("validation fuzzy threshold must be within (0,1], got %v", v.FuzzyThreshold)
	}

	c.Learning.Driver = strings.ToLower(c.Learning.Driver)
	switch c.Learning.Driver {
	case "memory":
	case "sqlite":
		if c.Learning.DSN == "" {
			return fmt.Errorf("learning dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported learning driver: %s", c.Learning.Driver)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/nexusprep.log"
	}
	return nil
}

// getConfigFilePath returns NEXUS_CONFIG or the first config.yaml found
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  64 << 20,
			ResultCacheSize: 256,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/nexusprep.log",
		},
		Validation: ValidationConfig{
			SampleSize:        100,
			MappingThreshold:  50,
			LearningThreshold: 80,
			FlagThreshold:     80,
			FuzzyThreshold:    0.4,
			MaxAffectedRows:   500,
			HeaderScanRows:    15,
			MaxFileBytes:      50 << 20,
		},
		Learning: LearningConfig{
			Driver:      "memory",
			DSN:         "data/firm_taxonomy.db",
			DefaultFirm: "default",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "nexusprep",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
