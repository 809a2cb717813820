package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, time.Minute, cfg.Scheduler.Tick)
	assert.Equal(t, time.Minute, cfg.Scheduler.BaseBackoff)
	assert.Equal(t, time.Hour, cfg.Scheduler.MaxBackoff)
	assert.Equal(t, time.Second, cfg.Scheduler.InterAlbumDelay)
	assert.InDelta(t, 0.1, cfg.Scheduler.IntervalJitter, 1e-9)
	assert.Equal(t, []string{"*"}, cfg.API.CORSOrigins)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("SCHEDULER_TICK=30s\nMASTODON_INSTANCE_URL=https://pixelfed.example\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Tick)
	assert.Equal(t, "https://pixelfed.example", cfg.Mastodon.InstanceURL)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsJitter(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL_JITTER", "1.5")
	_, err := Load("")
	assert.Error(t, err)
}

func TestDSNs(t *testing.T) {
	c := &Config{}
	c.Database.Path = "/tmp/a.db"
	c.Postgres.Name, c.Postgres.User, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode = "albums", "u", "db", 5432, "disable"

	assert.Contains(t, c.SQLiteDSN(), "file:/tmp/a.db?")
	assert.Contains(t, c.SQLiteDSN(), "foreign_keys(1)")
	assert.Equal(t, "dbname=albums user=u password= host=db port=5432 sslmode=disable", c.PostgresDSN())
}
