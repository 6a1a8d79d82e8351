package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/campus")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 8, cfg.BusinessHoursStart)
	assert.Equal(t, 20, cfg.BusinessHoursEnd)
	assert.Equal(t, 24, cfg.ReminderHours)
	assert.Equal(t, 5*time.Minute, cfg.SweepTimeout)
	assert.False(t, cfg.IsProduction)
	assert.False(t, cfg.DBAutoMigrate)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("BUSINESS_HOURS_START", "7")
	t.Setenv("BUSINESS_HOURS_END", "22")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("SWEEP_TIMEOUT", "90s")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, 7, cfg.BusinessHoursStart)
	assert.Equal(t, 22, cfg.BusinessHoursEnd)
	assert.Equal(t, 90*time.Second, cfg.SweepTimeout)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing dsn", env: map[string]string{"DB_DSN": ""}},
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "bad ttl", env: map[string]string{"JWT_ACCESS_TOKEN_TTL": "soon"}},
		{name: "bad cost", env: map[string]string{"BCRYPT_COST": "high"}},
		{name: "inverted window", env: map[string]string{"BUSINESS_HOURS_START": "20", "BUSINESS_HOURS_END": "8"}},
		{name: "window past midnight", env: map[string]string{"BUSINESS_HOURS_END": "25"}},
		{name: "bad bool", env: map[string]string{"DB_AUTO_MIGRATE": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
