package challenge

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/fintrack/internal/config"
)

// NewModule returns the challenge store options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, db *gorm.DB, rdb redis.UniversalClient) (Store, error) {
					return newStore(config.Challenge.Backend, db, rdb)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func newStore(backend string, db *gorm.DB, rdb redis.UniversalClient) (Store, error) {
	switch backend {
	case "postgres":
		return NewGormStore(db), nil
	case "redis":
		return NewRedisStore(rdb, "otp"), nil
	case "memory":
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unknown challenge backend %q", backend)
	}
}

func registerHooks(
	lifecycle fx.Lifecycle,
	config *config.AppConfig,
	store Store,
	logger *zap.Logger,
) {
	purger, ok := store.(Purger)
	if !ok {
		return
	}
	cleaner := NewCleaner(purger, config.Challenge.CleanupInterval, logger)

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting challenge cleaner",
				zap.String("backend", config.Challenge.Backend),
				zap.Duration("interval", config.Challenge.CleanupInterval))
			cleaner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cleaner.Stop()
			return nil
		},
	})
}
