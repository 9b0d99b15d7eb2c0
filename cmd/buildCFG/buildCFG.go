package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"srisai/internal/mailer"
	"srisai/internal/service"
	"srisai/internal/storage"
)

// Source is the subset of wbf/config the builders read from.
type Source interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type AdminConfig struct {
	ExpectedHash    string
	SessionTTL      time.Duration
	LoginRatePerMin int
	LoginBurst      int
	CookieSecure    bool
}

type RabbitConfig struct {
	Enabled  bool
	Url      string
	Exchange string
	Queue    string
}

func BuildServerConfig(cfg Source, log *zerolog.Logger) ServerConfig {
	sc := ServerConfig{
		Port:    cfg.GetString("server.port"),
		GinMode: cfg.GetString("server.gin_mode"),
	}
	if sc.Port == "" {
		log.Warn().Msg("server.port not set, using 8080")
		sc.Port = "8080"
	}
	if sc.GinMode == "" {
		sc.GinMode = "release"
	}
	return sc
}

func BuildStorageConfig(cfg Source, log *zerolog.Logger) (storage.Config, error) {
	sc := storage.Config{
		Driver:        cfg.GetString("storage.driver"),
		SQLitePath:    cfg.GetString("storage.sqlite_path"),
		MigrationsDir: cfg.GetString("storage.migrations_dir"),
		Redis: storage.RedisConfig{
			Address:  cfg.GetString("redis.address"),
			Password: cfg.GetString("redis.password"),
			DB:       cfg.GetInt("redis.db"),
			PoolSize: cfg.GetInt("redis.pool_size"),
		},
		Postgres: storage.PostgresConfig{
			MasterDSN:    cfg.GetString("postgres.master_dsn"),
			SlaveDSNs:    splitList(cfg.GetString("postgres.slave_dsns")),
			MaxOpenConns: cfg.GetInt("postgres.max_open_conns"),
			MaxIdleConns: cfg.GetInt("postgres.max_idle_conns"),
		},
		Mongo: storage.MongoConfig{
			URI:        cfg.GetString("mongo.uri"),
			Database:   cfg.GetString("mongo.database"),
			Collection: cfg.GetString("mongo.collection"),
		},
	}
	if sc.Driver == "" {
		sc.Driver = "sqlite"
	}
	if sc.MigrationsDir == "" {
		sc.MigrationsDir = "migrations/postgres"
	}
	if sc.Mongo.Database == "" {
		sc.Mongo.Database = "srisai"
	}

	lifetime, err := parseDuration(cfg.GetString("postgres.conn_max_lifetime"), 0)
	if err != nil {
		return storage.Config{}, fmt.Errorf("postgres.conn_max_lifetime: %w", err)
	}
	sc.Postgres.ConnMaxLifetime = lifetime

	switch sc.Driver {
	case "redis":
		if sc.Redis.Address == "" {
			return storage.Config{}, fmt.Errorf("redis.address is required for the redis driver")
		}
	case "postgres":
		if sc.Postgres.MasterDSN == "" {
			return storage.Config{}, fmt.Errorf("postgres.master_dsn is required for the postgres driver")
		}
	case "mongo":
		if sc.Mongo.URI == "" {
			return storage.Config{}, fmt.Errorf("mongo.uri is required for the mongo driver")
		}
	}

	log.Info().Str("driver", sc.Driver).Msg("storage configured")
	return sc, nil
}

func BuildAdminConfig(cfg Source, log *zerolog.Logger) (AdminConfig, error) {
	ac := AdminConfig{
		ExpectedHash:    strings.TrimSpace(cfg.GetString("admin.expected_hash")),
		LoginRatePerMin: cfg.GetInt("admin.login_rate_per_min"),
		LoginBurst:      cfg.GetInt("admin.login_burst"),
		CookieSecure:    cfg.GetBool("admin.cookie_secure"),
	}
	ttl, err := parseDuration(cfg.GetString("admin.session_ttl"), 12*time.Hour)
	if err != nil {
		return AdminConfig{}, fmt.Errorf("admin.session_ttl: %w", err)
	}
	ac.SessionTTL = ttl
	if ac.LoginRatePerMin <= 0 {
		ac.LoginRatePerMin = 10
	}
	if ac.LoginBurst <= 0 {
		ac.LoginBurst = 5
	}
	if ac.ExpectedHash == "" {
		log.Error().Msg("admin.expected_hash is not set: every admin login will be refused")
	}
	return ac, nil
}

func BuildDisplayConfig(cfg Source, log *zerolog.Logger) (service.Display, error) {
	d := service.Display{
		Location: time.Local,
		Layout:   cfg.GetString("render.time_layout"),
	}
	if tz := cfg.GetString("render.timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return service.Display{}, fmt.Errorf("render.timezone: %w", err)
		}
		d.Location = loc
	}
	if d.Layout == "" {
		d.Layout = service.DefaultTimeLayout
	}
	log.Debug().Str("timezone", d.Location.String()).Str("layout", d.Layout).Msg("display configured")
	return d, nil
}

func BuildRabbitConfig(cfg Source, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Enabled:  cfg.GetBool("rabbit.enabled"),
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if !rc.Enabled {
		return rc, nil
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required when rabbit.enabled is true")
	}
	if rc.Exchange == "" {
		rc.Exchange = "srisai.bookings"
	}
	if rc.Queue == "" {
		rc.Queue = "srisai.bookings.notify"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configured")
	return rc, nil
}

func BuildMailerConfig(cfg Source) mailer.Config {
	return mailer.Config{
		Host:     cfg.GetString("mailer.host"),
		Port:     cfg.GetInt("mailer.port"),
		From:     cfg.GetString("mailer.from"),
		Password: cfg.GetString("mailer.password"),
		AdminTo:  cfg.GetString("mailer.admin_to"),
	}
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
