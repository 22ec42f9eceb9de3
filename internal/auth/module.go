package auth

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/fintrack/internal/challenge"
	"github.com/elskow/fintrack/internal/config"
	"github.com/elskow/fintrack/internal/notify"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide token issuer
			fx.Annotate(
				func(config *config.AppConfig) *TokenIssuer {
					return NewTokenIssuer(config.Auth.JWTSecret, config.Auth.TokenExpiration)
				},
			),
			// Provide service
			fx.Annotate(
				func(
					config *config.AppConfig,
					log *zap.Logger,
					repo Repository,
					challenges challenge.Store,
					sender notify.Sender,
					tokens *TokenIssuer,
				) *Service {
					return NewService(&config.Auth, log, repo, challenges, sender, tokens)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(tokens *TokenIssuer, log *zap.Logger) *AuthMiddleware {
					return NewAuthMiddleware(tokens, log)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(lifecycle fx.Lifecycle, svc *Service, log *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				svc.Wait()
				close(done)
			}()

			select {
			case <-done:
				return nil
			case <-ctx.Done():
				log.Warn("stopped before pending emails were delivered")
				return ctx.Err()
			}
		},
	})
}
