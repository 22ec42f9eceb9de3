package migration

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/config"
)

// Module provides migration-related dependencies
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) (*Migrator, error) {
					return NewMigrator(&config.Database)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

// registerHooks brings the users, otp_challenges and wallets tables up to
// date before any store is used.
func registerHooks(
	lifecycle fx.Lifecycle,
	migrator *Migrator,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			from, to, err := migrator.Sync()
			if err != nil {
				return err
			}

			if from == to {
				logger.Info("Database schema up to date", zap.Int64("version", to))
				return nil
			}
			logger.Info("Database schema migrated",
				zap.Int64("from_version", from),
				zap.Int64("to_version", to))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return migrator.Close()
		},
	})
}
