package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/fintrack/internal/config"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, logger *zap.Logger) (*Manager, error) {
					return NewManager(&config.Database, logger)
				},
			),
			fx.Annotate(
				func(manager *Manager) *gorm.DB {
					return manager.DB()
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) redis.UniversalClient {
					return NewRedisClient(&config.Redis)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	config *config.AppConfig,
	manager *Manager,
	rdb redis.UniversalClient,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if config.Challenge.Backend != "redis" {
				return nil
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			logger.Info("redis connection opened", zap.String("addr", config.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing database connections")
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close redis client", zap.Error(err))
			}
			return manager.Close()
		},
	})
}
