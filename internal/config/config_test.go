package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "pw")
	for _, key := range []string{"STORAGE_DRIVER", "APP_TIMEZONE", "CALENDAR_ID", "CALENDAR_EVENT_HOUR", "CALENDAR_EVENT_DURATION", "GOOGLE_CLIENT_ID", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "primary", cfg.Calendar.ID)
	assert.Equal(t, 9, cfg.Calendar.EventHour)
	assert.Equal(t, time.Hour, cfg.Calendar.EventDuration)
	assert.Equal(t, "postgres://planner:pw@localhost:5432/planner?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "development-secret", cfg.SigningSecret())
	assert.False(t, cfg.Google.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("SYNC_INTERVAL_SECONDS", "45")
	t.Setenv("CALENDAR_EVENT_DURATION", "30m")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, 45*time.Second, cfg.Buffer.SyncInterval)
	assert.Equal(t, 30*time.Minute, cfg.Calendar.EventDuration)
	assert.Equal(t, "s3cret", cfg.SigningSecret())
	assert.True(t, cfg.Google.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "production",
			Timezone:    "UTC",
			Storage:     StorageMemory,
			JWT:         JWTConfig{Secret: "x"},
			Calendar:    CalendarConfig{EventHour: 9, EventDuration: time.Hour},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "missing secret in production", mutate: func(c *Config) { c.JWT.Secret = "" }},
		{name: "missing secret in development", mutate: func(c *Config) { c.JWT.Secret = ""; c.Environment = "development" }, ok: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage = "mysql" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{name: "bad hour", mutate: func(c *Config) { c.Calendar.EventHour = 24 }},
		{name: "bad duration", mutate: func(c *Config) { c.Calendar.EventDuration = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
