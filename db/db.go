package db

import (
	"context"
	"fmt"

	"dinein-telegram/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is nil when the bot runs without a database; callers must treat
// that as "history disabled", not an error.
var Pool *pgxpool.Pool

func Init(ctx context.Context, cfg config.DBConfig) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	Pool = pool
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}
