package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  driver: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout())
	assert.Equal(t, time.Hour, cfg.Booking.Unit())
	assert.Equal(t, 3, cfg.Booking.MaxReschedules)
	assert.Equal(t, 3, cfg.Booking.InviteMaxReschedules)
	assert.Equal(t, 10*time.Second, cfg.Booking.ClaimLockTTL())
	assert.Equal(t, time.Minute, cfg.Booking.AvailabilityCacheTTL())
	assert.Equal(t, 5*time.Minute, cfg.Worker.SweepInterval())
	assert.Equal(t, "match_events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "notifications", cfg.Kafka.NotificationsTopic)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "host=localhost port=5432 user=matchbooking password=matchbooking dbname=matchbooking sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse([]byte("storage:\n  driver: postgres\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, ":9999", cfg.HTTP.Address)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "postgres without host", yaml: "storage:\n  driver: postgres\n", want: "database.host"},
		{name: "unknown driver", yaml: "storage:\n  driver: sqlite\n", want: "storage.driver"},
		{name: "unit does not divide day", yaml: "storage:\n  driver: memory\nbooking:\n  unit_minutes: 7\n", want: "unit_minutes"},
		{name: "invite cap above three", yaml: "storage:\n  driver: memory\nbooking:\n  invite_max_reschedules: 4\n", want: "invite_max_reschedules"},
		{name: "negative limit", yaml: "storage:\n  driver: memory\nbooking:\n  max_reschedules: -1\n", want: "must not be negative"},
		{name: "malformed yaml", yaml: "storage: [", want: "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParse_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte("storage:\n  driver: sqlite\nbooking:\n  unit_minutes: 7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "unit_minutes")
}

func TestMain(m *testing.M) {
	for _, key := range []string{"HTTP_ADDRESS", "STORAGE_DRIVER", "DB_PASSWORD", "REDIS_ADDR", "KAFKA_BROKERS", "LOG_LEVEL"} {
		_ = os.Unsetenv(key)
	}
	os.Exit(m.Run())
}
