package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/logger"
)

// Pool is the part of the connection pool the readiness check needs
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig sizes the pool and bounds the startup wait for the server
type PoolConfig struct {
	ConnString  string
	MaxConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration

	// ConnectAttempts is how many pings are made before giving up. A
	// database container started alongside the app usually needs a few.
	ConnectAttempts int
	RetryDelay      time.Duration
}

// NewPool creates a PostgreSQL connection pool and waits until the server
// answers a ping
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	maxConns := min(cfg.MaxConns, math.MaxInt32)
	config.MaxConns = int32(max(maxConns, 1))
	config.MinConns = min(DefaultMinConnections, config.MaxConns)
	config.MaxConnLifetime = cfg.MaxLifetime
	config.MaxConnIdleTime = cfg.MaxIdleTime
	if _, ok := config.ConnConfig.RuntimeParams[RuntimeParamApplicationName]; !ok {
		config.ConnConfig.RuntimeParams[RuntimeParamApplicationName] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	if err := waitForServer(ctx, pool, cfg.ConnectAttempts, cfg.RetryDelay); err != nil {
		pool.Close()
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", config.MaxConns, "min_conns", config.MinConns)
	return pool, nil
}

// waitForServer pings until the server answers, the attempts run out or ctx
// is done
func waitForServer(ctx context.Context, db Pool, attempts int, delay time.Duration) error {
	attempts = max(attempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		if attempt >= attempts {
			break
		}
		logger.FromContext(ctx).Warn(LogMsgDatabaseNotReady, "attempt", attempt, "of", attempts, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", ErrMsgFailedToPingDatabase, attempts, err)
}
