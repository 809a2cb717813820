package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development" env-description:"local, development or production"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	}
	Database struct {
		Driver string `env:"DATABASE_DRIVER" env-default:"sqlite" env-description:"sqlite or postgres"`
		Path   string `env:"DATABASE_PATH" env-default:"./data/albums.db"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Mastodon struct {
		InstanceURL       string        `env:"MASTODON_INSTANCE_URL" env-default:"https://mastodon.social"`
		AccessToken       string        `env:"MASTODON_ACCESS_TOKEN"`
		Timeout           time.Duration `env:"MASTODON_TIMEOUT" env-default:"15s"`
		RequestsPerSecond float64       `env:"MASTODON_RPS" env-default:"1"`
		Burst             int           `env:"MASTODON_BURST" env-default:"5"`
		MaxWorkers        int           `env:"MASTODON_MAX_WORKERS" env-default:"4" env-description:"parallel sub-fetches per resolve"`
	}
	Redis struct {
		Addr     string        `env:"REDIS_ADDR" env-description:"enables the remote page cache when set"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB" env-default:"0"`
		PageTTL  time.Duration `env:"REDIS_PAGE_TTL" env-default:"60s"`
	}
	Telegram struct {
		Token   string `env:"TELEGRAM_TOKEN" env-description:"enables refresh notifications when set"`
		Channel string `env:"TELEGRAM_CHANNEL"`
	}
	Scheduler struct {
		Enabled         bool          `env:"SCHEDULER_ENABLED" env-default:"true"`
		Tick            time.Duration `env:"SCHEDULER_TICK" env-default:"1m"`
		DefaultInterval time.Duration `env:"SCHEDULER_DEFAULT_INTERVAL" env-default:"15m"`
		IntervalJitter  float64       `env:"SCHEDULER_INTERVAL_JITTER" env-default:"0.1"`
		BaseBackoff     time.Duration `env:"SCHEDULER_BASE_BACKOFF" env-default:"1m"`
		MaxBackoff      time.Duration `env:"SCHEDULER_MAX_BACKOFF" env-default:"1h"`
		BackoffJitter   float64       `env:"SCHEDULER_BACKOFF_JITTER" env-default:"0.1"`
		InterAlbumDelay time.Duration `env:"SCHEDULER_INTER_ALBUM_DELAY" env-default:"1s"`
		StopGrace       time.Duration `env:"SCHEDULER_STOP_GRACE" env-default:"30s"`
		AlbumTimeout    time.Duration `env:"SCHEDULER_ALBUM_TIMEOUT" env-default:"2m"`
		CleanupEnabled  bool          `env:"SCHEDULER_CLEANUP_ENABLED" env-default:"false"`
		CleanupHour     uint          `env:"SCHEDULER_CLEANUP_HOUR" env-default:"3"`
		MediaMaxAge     time.Duration `env:"SCHEDULER_MEDIA_MAX_AGE" env-default:"720h" env-description:"eviction age passed to the media cache during cleanup"`
	}
	API struct {
		QueryRPS     float64       `env:"API_QUERY_RPS" env-default:"2"`
		QueryBurst   int           `env:"API_QUERY_BURST" env-default:"5"`
		WriteTimeout time.Duration `env:"API_WRITE_TIMEOUT" env-default:"60s"`
		CORSOrigins  []string      `env:"API_CORS_ORIGINS" env-default:"*" env-separator:","`
	}
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

// New loads the process configuration once. CONFIG_PATH optionally names a
// yaml, toml, json or .env file; environment variables always win.
func New() (*Config, error) {
	once.Do(func() {
		cfg, loadErr = Load(os.Getenv("CONFIG_PATH"))
	})
	return cfg, loadErr
}

// Load reads a fresh configuration without touching the cached one.
func Load(path string) (*Config, error) {
	c := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, c)
	} else {
		err = cleanenv.ReadEnv(c)
	}
	if err != nil {
		help, _ := cleanenv.GetDescription(c, nil)
		return nil, fmt.Errorf("failed to read configuration: %w\n%s", err, help)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Scheduler.IntervalJitter < 0 || c.Scheduler.IntervalJitter >= 1 {
		return fmt.Errorf("SCHEDULER_INTERVAL_JITTER must be in [0,1)")
	}
	if c.Scheduler.BackoffJitter < 0 || c.Scheduler.BackoffJitter >= 1 {
		return fmt.Errorf("SCHEDULER_BACKOFF_JITTER must be in [0,1)")
	}
	if c.Scheduler.MaxBackoff < c.Scheduler.BaseBackoff {
		return fmt.Errorf("SCHEDULER_MAX_BACKOFF must not be below SCHEDULER_BASE_BACKOFF")
	}
	if c.Scheduler.CleanupHour > 23 {
		return fmt.Errorf("SCHEDULER_CLEANUP_HOUR must be in [0,23]")
	}
	return nil
}

// PostgresDSN is the key/value connection string used by pgx and lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

// SQLiteDSN enables WAL, foreign keys and a busy timeout on every connection.
func (c *Config) SQLiteDSN() string {
	return SQLiteDSN(c.Database.Path)
}

func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}
