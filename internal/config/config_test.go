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
	t.Setenv("DB_PASSWORD", "p@ss word")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "energy-backoffice", cfg.AppName)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Contains(t, cfg.Database.URL, "p%40ss%20word")
	assert.Equal(t, "0 5 0 * * *", cfg.Scheduler.PeriodCloseSpec)
}

func TestLoadOverridesAndValidation(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TOKEN_TTL", "90")
	t.Setenv("AUTH_AUTO_CONFIRM", "false")
	t.Setenv("JOURNAL_SHIP_INTERVAL", "1m")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.JWT.TokenTTL)
	assert.False(t, cfg.Auth.AutoConfirm)
	assert.Equal(t, time.Minute, cfg.Journal.ShipInterval)

	t.Setenv("AUTH_BCRYPT_COST", "99")
	_, err = Load()
	assert.Error(t, err)
}
