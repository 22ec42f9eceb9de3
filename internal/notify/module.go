package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/config"
)

// NewModule returns the notification options. The sender is built once and
// shared by every request.
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewMetrics,
			fx.Annotate(
				func(config *config.AppConfig, metrics *Metrics, lifecycle fx.Lifecycle, logger *zap.Logger) (Sender, error) {
					return newSender(config, metrics, lifecycle, logger)
				},
			),
		),
	)
}

func newSender(cfg *config.AppConfig, metrics *Metrics, lifecycle fx.Lifecycle, logger *zap.Logger) (Sender, error) {
	log := logger.Named("mailer")

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			for kind, m := range metrics.Snapshot() {
				log.Info("email delivery summary",
					zap.String("kind", string(kind)),
					zap.Int("sent", m.Sent),
					zap.Int("failed", m.Failed))
			}
			return nil
		},
	})

	if !cfg.SMTP.Configured() {
		log.Warn("SMTP not configured, codes will be written to the log")
		return Instrument(NewLogSender(cfg.SMTP.AppName, cfg.Auth.OTPTTL, log), metrics), nil
	}

	smtp, err := NewSMTPSender(&cfg.SMTP, cfg.Auth.OTPTTL, log)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return smtp.Verify(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return smtp.Close()
		},
	})

	return Instrument(smtp, metrics), nil
}
