package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address             string `yaml:"address"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_seconds"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSecs) * time.Second
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type BookingConfig struct {
	UnitMinutes             int `yaml:"unit_minutes"`
	MaxReschedules          int `yaml:"max_reschedules"`
	InviteMaxReschedules    int `yaml:"invite_max_reschedules"`
	ClaimLockTTLSeconds     int `yaml:"claim_lock_ttl_seconds"`
	AvailabilityCacheTTLSec int `yaml:"availability_cache_ttl_seconds"`
	BatchConcurrency        int `yaml:"batch_concurrency"`
}

func (b BookingConfig) Unit() time.Duration {
	return time.Duration(b.UnitMinutes) * time.Minute
}

func (b BookingConfig) ClaimLockTTL() time.Duration {
	return time.Duration(b.ClaimLockTTLSeconds) * time.Second
}

func (b BookingConfig) AvailabilityCacheTTL() time.Duration {
	return time.Duration(b.AvailabilityCacheTTLSec) * time.Second
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.ExpirationSweepMinutes) * time.Minute
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and defaults, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeoutSecs == 0 {
		c.HTTP.ShutdownTimeoutSecs = 5
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "match_events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "matchbooking-worker"
	}
	if c.Booking.UnitMinutes == 0 {
		c.Booking.UnitMinutes = 60
	}
	if c.Booking.MaxReschedules == 0 {
		c.Booking.MaxReschedules = 3
	}
	if c.Booking.InviteMaxReschedules == 0 {
		c.Booking.InviteMaxReschedules = 3
	}
	if c.Booking.ClaimLockTTLSeconds == 0 {
		c.Booking.ClaimLockTTLSeconds = 10
	}
	if c.Booking.AvailabilityCacheTTLSec == 0 {
		c.Booking.AvailabilityCacheTTLSec = 60
	}
	if c.Booking.BatchConcurrency == 0 {
		c.Booking.BatchConcurrency = 4
	}
	if c.Worker.ExpirationSweepMinutes == 0 {
		c.Worker.ExpirationSweepMinutes = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for the postgres driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver))
	}
	if c.Booking.UnitMinutes < 0 || (c.Booking.UnitMinutes > 0 && 24*60%c.Booking.UnitMinutes != 0) {
		errs = append(errs, fmt.Errorf("booking.unit_minutes must divide a day, got %d", c.Booking.UnitMinutes))
	}
	if c.Booking.MaxReschedules < 0 || c.Booking.InviteMaxReschedules < 0 {
		errs = append(errs, errors.New("reschedule limits must not be negative"))
	}
	if c.Booking.InviteMaxReschedules > 3 {
		errs = append(errs, fmt.Errorf("booking.invite_max_reschedules must be at most 3, got %d", c.Booking.InviteMaxReschedules))
	}
	if c.Booking.BatchConcurrency < 0 {
		errs = append(errs, errors.New("booking.batch_concurrency must not be negative"))
	}
	return errors.Join(errs...)
}
