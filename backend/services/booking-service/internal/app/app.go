package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const (
	maxRetries       = 5
	connectTimeout   = 5 * time.Second
	initialBackoff   = 500 * time.Millisecond
	migrationTimeout = time.Minute
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	// Redis is nil when REDIS_ADDR is unset; presence then stays in process.
	Redis *redis.Client
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.Flag_RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
		err := withRetry("run migrations", func() error { return repositories.RunMigrations(ctx, cfg.DBUrl) })
		cancel()
		if err != nil {
			return nil, err
		}
		utils.Logger.Info("Database migrations applied")
	}

	var dbPool *pgxpool.Pool
	err := withRetry("connect to database", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		var err error
		dbPool, err = newDBPool(ctx, cfg.DBUrl)
		return err
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: dbPool}

	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		utils.Logger.Infof("Connected to Redis at %s", cfg.RedisAddr)
	}

	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
}

// withRetry retries fn with exponential backoff, for dependencies that come
// up after the service in compose and on first deploys.
func withRetry(what string, fn func() error) error {
	backoff := initialBackoff
	var err error
	for i := 1; i <= maxRetries; i++ {
		if err = fn(); err == nil {
			if i > 1 {
				utils.Logger.Infof("%s: succeeded on attempt %d", what, i)
			}
			return nil
		}
		if i == maxRetries {
			break
		}
		utils.Logger.WithError(err).Warnf("%s: attempt %d/%d failed, retrying in %v", what, i, maxRetries, backoff)
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("unable to %s after %d attempts: %w", what, maxRetries, err)
}

// newDBPool retires idle sockets before proxies drop them and keeps the
// rest warm with a background health check.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
