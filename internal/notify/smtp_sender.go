package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/config"
)

// SMTPSender delivers codes through one SMTP client built at startup.
type SMTPSender struct {
	client   *mail.Client
	from     string
	appName  string
	validity time.Duration
	logger   *zap.Logger

	// sends are serialized over the shared client
	mu sync.Mutex
}

func NewSMTPSender(cfg *config.SMTPConfig, validity time.Duration, logger *zap.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		// app passwords are often pasted with spaces
		mail.WithPassword(strings.Join(strings.Fields(cfg.Password), "")),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{
		client:   client,
		from:     cfg.From,
		appName:  cfg.AppName,
		validity: validity,
		logger:   logger,
	}, nil
}

// Verify dials the server and authenticates once, surfacing bad credentials
// at startup rather than on the first request.
func (s *SMTPSender) Verify(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp verify failed: %w", err)
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("smtp verify failed: %w", err)
	}
	s.logger.Info("SMTP verify OK")
	return nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string, kind Kind) error {
	rendered, err := Render(kind, s.appName, code, s.validity)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, rendered.HTML)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}
