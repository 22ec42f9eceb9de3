package challenge

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("challenge not found")

// Store persists OTP challenges. Every read path treats an expired challenge
// as absent and removes it.
type Store interface {
	FindLatest(ctx context.Context, email string, purpose Purpose) (*Challenge, error)
	DeleteAll(ctx context.Context, email string, purpose Purpose) error
	Create(ctx context.Context, email string, purpose Purpose, otpHash string, expiresAt time.Time) (*Challenge, error)
	IncrementAttempts(ctx context.Context, id string) error
}

// Purger is implemented by stores without physical expiry.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
