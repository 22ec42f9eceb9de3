package main

import (
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/app"
	"github.com/elskow/fintrack/internal/server"
)

// shutdownTimeout leaves room for pending OTP emails to go out.
const shutdownTimeout = 45 * time.Second

func main() {
	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	fintrack := fx.New(
		app.Module(),
		fx.StopTimeout(shutdownTimeout),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{
				Logger: log.Named("fx"),
			}
		}),
		fx.Invoke(func(lifecycle fx.Lifecycle, log *zap.Logger) {
			lifecycle.Append(fx.StopHook(func() {
				_ = log.Sync()
			}))
		}),
	)

	fintrack.Run()
}
