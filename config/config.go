package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Reservation ReservationConfig `yaml:"reservation"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Triage      TriageConfig      `yaml:"triage"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
	LogFormat   string            `yaml:"log_format"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ReservationConfig controls the bed hold TTL and the expiry sweep.
type ReservationConfig struct {
	TTLMinutes           int           `yaml:"ttl_minutes"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	TTL                  time.Duration `yaml:"-"` // Ignored by YAML parser
	SweepInterval        time.Duration `yaml:"-"`
}

// ScoringConfig holds the tunable knobs of the hospital ranking formula.
type ScoringConfig struct {
	AffordabilityThreshold float64 `yaml:"affordability_threshold"`
	AssumedSpeedKmph       float64 `yaml:"assumed_speed_kmph"`
}

// TriageConfig points at the external symptom classifier.
type TriageConfig struct {
	URL            string        `yaml:"url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Reservation.TTLMinutes <= 0 {
		cfg.Reservation.TTLMinutes = 15
	}
	cfg.Reservation.TTL = time.Duration(cfg.Reservation.TTLMinutes) * time.Minute

	if cfg.Reservation.SweepIntervalSeconds <= 0 {
		cfg.Reservation.SweepIntervalSeconds = 60
	}
	cfg.Reservation.SweepInterval = time.Duration(cfg.Reservation.SweepIntervalSeconds) * time.Second

	if cfg.Scoring.AssumedSpeedKmph <= 0 {
		cfg.Scoring.AssumedSpeedKmph = 30
	}
	if cfg.Scoring.AffordabilityThreshold <= 0 {
		cfg.Scoring.AffordabilityThreshold = 50000
	}

	if cfg.Triage.TimeoutSeconds <= 0 {
		cfg.Triage.TimeoutSeconds = 10
	}
	cfg.Triage.Timeout = time.Duration(cfg.Triage.TimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	return &cfg, nil
}
