package challenge

import "time"

// Purpose scopes a challenge. At most one active challenge exists per
// (email, purpose) pair.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "VERIFY_EMAIL"
	PurposeResetPassword Purpose = "RESET_PASSWORD"
)

// Challenge is a hashed, time-bounded OTP. The plaintext code is never stored.
type Challenge struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"size:255;not null;index:idx_otp_challenges_email_purpose"`
	Purpose    Purpose   `gorm:"size:32;not null;index:idx_otp_challenges_email_purpose"`
	OTPHash    string    `gorm:"column:otp_hash;size:64;not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	Attempts   int       `gorm:"not null;default:0"`
	LastSentAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (Challenge) TableName() string {
	return "otp_challenges"
}

func (c *Challenge) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
