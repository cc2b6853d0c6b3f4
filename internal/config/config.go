package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the attribution platform.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Tracking    TrackingConfig    `yaml:"tracking"`
	Attribution AttributionConfig `yaml:"attribution"`
	Worker      WorkerConfig      `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings for the summary cache and worker locks.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
	Enabled bool   `yaml:"enabled"`
}

// TrackingConfig holds the touchpoint event queue settings.
type TrackingConfig struct {
	QueueURL string `yaml:"queue_url"`
	Region   string `yaml:"region"`
	Enabled  bool   `yaml:"enabled"`
}

// AttributionConfig holds the engine parameters.
type AttributionConfig struct {
	WindowDays         int      `yaml:"window_days"`
	DedupWindowMinutes int      `yaml:"dedup_window_minutes"`
	HalfLifeDays       float64  `yaml:"half_life_days"`
	PositionFirst      float64  `yaml:"position_first"`
	PositionLast       float64  `yaml:"position_last"`
	PositionMiddle     float64  `yaml:"position_middle"`
	ActiveModels       []string `yaml:"active_models"`
}

// DedupWindow returns the dedup window as a duration.
func (c AttributionConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMinutes) * time.Minute
}

// HalfLife returns the time-decay half-life as a duration.
func (c AttributionConfig) HalfLife() time.Duration {
	return time.Duration(c.HalfLifeDays * 24 * float64(time.Hour))
}

// WorkerConfig holds backfill worker settings.
type WorkerConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	BatchSize           int `yaml:"batch_size"`
	NumWorkers          int `yaml:"num_workers"`
}

// PollInterval returns the poll interval as a duration.
func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load reads and parses the configuration file, then applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Tracking.Region == "" {
		cfg.Tracking.Region = "us-east-1"
	}
	if cfg.Attribution.WindowDays == 0 {
		cfg.Attribution.WindowDays = 30
	}
	if cfg.Attribution.DedupWindowMinutes == 0 {
		cfg.Attribution.DedupWindowMinutes = 60
	}
	if cfg.Attribution.HalfLifeDays == 0 {
		cfg.Attribution.HalfLifeDays = 7
	}
	if cfg.Attribution.PositionFirst == 0 && cfg.Attribution.PositionLast == 0 && cfg.Attribution.PositionMiddle == 0 {
		cfg.Attribution.PositionFirst = 0.4
		cfg.Attribution.PositionLast = 0.4
		cfg.Attribution.PositionMiddle = 0.2
	}
	if len(cfg.Attribution.ActiveModels) == 0 {
		cfg.Attribution.ActiveModels = []string{
			"first_touch", "last_touch", "linear", "time_decay", "position_based",
		}
	}
	if cfg.Worker.PollIntervalSeconds == 0 {
		cfg.Worker.PollIntervalSeconds = 30
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 100
	}
	if cfg.Worker.NumWorkers == 0 {
		cfg.Worker.NumWorkers = 4
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if queueURL := os.Getenv("SQS_TOUCHPOINT_QUEUE_URL"); queueURL != "" {
		cfg.Tracking.QueueURL = queueURL
		cfg.Tracking.Enabled = true
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Tracking.Region = region
	}
	if v := os.Getenv("ATTRIBUTION_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Attribution.WindowDays = days
		}
	}
	if v := os.Getenv("ATTRIBUTION_HALF_LIFE_DAYS"); v != "" {
		if days, err := strconv.ParseFloat(v, 64); err == nil && days > 0 {
			cfg.Attribution.HalfLifeDays = days
		}
	}

	return cfg, nil
}
