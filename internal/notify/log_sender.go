package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogSender writes codes to the log instead of sending mail. It is selected
// when no SMTP server is configured so that development setups stay usable.
type LogSender struct {
	appName  string
	validity time.Duration
	logger   *zap.Logger
}

func NewLogSender(appName string, validity time.Duration, logger *zap.Logger) *LogSender {
	return &LogSender{
		appName:  appName,
		validity: validity,
		logger:   logger,
	}
}

func (s *LogSender) SendOTP(_ context.Context, to, code string, kind Kind) error {
	msg, err := Render(kind, s.appName, code, s.validity)
	if err != nil {
		return err
	}

	s.logger.Info("SMTP not configured, email not sent",
		zap.String("to", to),
		zap.String("kind", string(kind)),
		zap.String("subject", msg.Subject),
		zap.String("code", code))
	return nil
}
