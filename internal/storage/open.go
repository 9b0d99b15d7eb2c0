package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Config struct {
	Driver        string
	SQLitePath    string
	MigrationsDir string
	Redis         RedisConfig
	Postgres      PostgresConfig
	Mongo         MongoConfig
}

// Open builds the slot backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *zerolog.Logger) (Slot, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "srisai.db"
		}
		return NewSQLite(path)
	case "redis":
		return NewRedis(ctx, cfg.Redis)
	case "postgres":
		pg, err := NewPostgres(cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		if cfg.MigrationsDir != "" {
			if err := pg.MigrateUp(cfg.MigrationsDir); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		return pg, nil
	case "mongo":
		return NewMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
