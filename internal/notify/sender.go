package notify

import (
	"context"
	"time"
)

// Kind selects the email template used to deliver a code.
type Kind string

const (
	KindVerifyEmail   Kind = "VERIFY_EMAIL"
	KindResetPassword Kind = "RESET_PASSWORD"
)

// Sender delivers one-time codes to an email address.
type Sender interface {
	SendOTP(ctx context.Context, to, code string, kind Kind) error
}

// instrumentedSender records every delivery attempt in Metrics.
type instrumentedSender struct {
	next    Sender
	metrics *Metrics
}

func Instrument(next Sender, metrics *Metrics) Sender {
	return &instrumentedSender{next: next, metrics: metrics}
}

func (s *instrumentedSender) SendOTP(ctx context.Context, to, code string, kind Kind) error {
	start := time.Now()
	err := s.next.SendOTP(ctx, to, code, kind)
	s.metrics.Record(kind, time.Since(start), err)
	return err
}
