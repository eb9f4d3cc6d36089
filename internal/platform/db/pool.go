package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// NewPool opens a pgx pool and verifies it with a ping. Slow or failed
// statements are logged through logger at warn level.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32, logger zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zerologAdapter{logger: logger.With().Str("component", "pgx").Logger()},
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		evt = a.logger.Debug()
	case tracelog.LogLevelInfo:
		evt = a.logger.Info()
	case tracelog.LogLevelWarn:
		evt = a.logger.Warn()
	default:
		evt = a.logger.Error()
	}
	// statement arguments may carry PHI and are never logged
	delete(data, "args")
	evt.Fields(data).Msg(msg)
}
