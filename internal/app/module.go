package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/auth"
	"github.com/elskow/fintrack/internal/challenge"
	"github.com/elskow/fintrack/internal/database"
	"github.com/elskow/fintrack/internal/migration"
	"github.com/elskow/fintrack/internal/notify"
	"github.com/elskow/fintrack/internal/server"
	"github.com/elskow/fintrack/internal/wallet"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Storage
		database.Module(),
		migration.Module(),
		challenge.NewModule(),

		// Mail
		notify.NewModule(),

		// Domain modules
		auth.NewModule(),
		wallet.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
