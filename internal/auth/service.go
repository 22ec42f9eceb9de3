package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/challenge"
	"github.com/elskow/fintrack/internal/config"
	"github.com/elskow/fintrack/internal/notify"
)

// asyncSendTimeout bounds a detached reset-code delivery.
const asyncSendTimeout = 30 * time.Second

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	challenges challenge.Store
	sender     notify.Sender
	hasher     *Hasher
	tokens     *TokenIssuer
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string

	pending sync.WaitGroup
}

// RegisterResult is returned by RegisterInit.
type RegisterResult struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Session is returned once a user has proven who they are.
type Session struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	challenges challenge.Store,
	sender notify.Sender,
	tokens *TokenIssuer,
) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		challenges: challenges,
		sender:     sender,
		hasher:     NewHasher(config.BcryptCost),
		tokens:     tokens,
		now:        time.Now,
	}
}

// RegisterInit creates an unverified account, or reuses a pending one, and
// mails a VERIFY_EMAIL code unless one was sent within the cooldown.
func (s *Service) RegisterInit(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	user, err := s.repository.GetUserByEmail(ctx, email)
	switch {
	case err == nil && user.EmailVerified:
		return nil, newError(KindConflict, MsgEmailInUse)
	case err == nil:
		// A pending account keeps the credentials it was created with. The
		// request only resends the code to the mailbox owner.
	case errors.Is(err, ErrUserNotFound):
		if err := s.createPendingUser(ctx, name, email, password); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	coolingDown, err := s.inCooldown(ctx, email, challenge.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}
	if coolingDown {
		return &RegisterResult{Email: email, Message: MsgVerificationPending}, nil
	}

	code, err := s.issueChallenge(ctx, email, challenge.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	if err := s.sender.SendOTP(ctx, email, code, notify.KindVerifyEmail); err != nil {
		s.log.Error("failed to send verification email",
			zap.String("email", email),
			zap.Error(err))
		// Drop the undelivered code so the cooldown does not block a retry.
		if delErr := s.challenges.DeleteAll(ctx, email, challenge.PurposeVerifyEmail); delErr != nil {
			s.log.Error("failed to discard undelivered challenge", zap.Error(delErr))
		}
		return nil, newError(KindInternal, MsgSendFailed)
	}

	s.log.Info("verification code sent", zap.String("email", email))
	return &RegisterResult{Email: email, Message: MsgVerificationSent}, nil
}

// VerifyEmailOTP consumes a VERIFY_EMAIL code, marks the account verified and
// returns a session.
func (s *Service) VerifyEmailOTP(ctx context.Context, email, otp string) (*Session, error) {
	email = NormalizeEmail(email)
	otp = strings.TrimSpace(otp)

	if err := s.checkChallenge(ctx, email, otp, challenge.PurposeVerifyEmail); err != nil {
		return nil, err
	}

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newError(KindNotFound, MsgAccountNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user.EmailVerified = true
	if err := s.repository.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	if err := s.challenges.DeleteAll(ctx, email, challenge.PurposeVerifyEmail); err != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}

	s.log.Info("email verified", zap.String("user_id", user.ID))
	return s.newSession(user)
}

// Login authenticates a verified account.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.ComparePassword(password, s.dummyPasswordHash()) // Prevent timing attacks
			return nil, newError(KindUnauthorized, MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.EmailVerified {
		return nil, newError(KindForbidden, MsgEmailNotVerified)
	}

	if !s.hasher.ComparePassword(password, user.PasswordHash) {
		return nil, newError(KindUnauthorized, MsgInvalidCredentials)
	}

	return s.newSession(user)
}

// ForgotPassword mails a RESET_PASSWORD code when the account exists. The
// returned message never depends on whether it does.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return MsgForgotPassword, nil
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	coolingDown, err := s.inCooldown(ctx, email, challenge.PurposeResetPassword)
	if err != nil {
		return "", err
	}
	if coolingDown {
		return MsgForgotPassword, nil
	}

	code, err := s.issueChallenge(ctx, email, challenge.PurposeResetPassword)
	if err != nil {
		return "", err
	}

	// Delivery runs detached so an existing account does not answer slower
	// than an unknown one. Failures are only logged.
	s.dispatch(ctx, func(ctx context.Context) {
		if err := s.sender.SendOTP(ctx, email, code, notify.KindResetPassword); err != nil {
			s.log.Error("failed to send password reset email",
				zap.String("user_id", user.ID),
				zap.Error(err))
			return
		}
		s.log.Info("password reset code sent", zap.String("user_id", user.ID))
	})

	return MsgForgotPassword, nil
}

// ResetPassword consumes a RESET_PASSWORD code and replaces the password. No
// session is issued; the user has to log in again.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	email = NormalizeEmail(email)
	otp = strings.TrimSpace(otp)

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", newError(KindInvalidOrExpired, MsgInvalidOrExpiredOTP)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.checkChallenge(ctx, email, otp, challenge.PurposeResetPassword); err != nil {
		return "", err
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	// Consume the code before writing so it can never be replayed, even if
	// the update below fails.
	if err := s.challenges.DeleteAll(ctx, email, challenge.PurposeResetPassword); err != nil {
		return "", fmt.Errorf("failed to consume challenge: %w", err)
	}

	user.PasswordHash = hash
	if err := s.repository.UpdateUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info("password reset", zap.String("user_id", user.ID))
	return MsgPasswordReset, nil
}

// ValidateToken resolves a session token to its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

// Wait blocks until detached deliveries have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) createPendingUser(ctx context.Context, name, email, password string) error {
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: false,
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return newError(KindConflict, MsgEmailInUse)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created pending user", zap.String("user_id", user.ID))
	return nil
}

// inCooldown reports whether a code for (email, purpose) was sent too
// recently to send another.
func (s *Service) inCooldown(ctx context.Context, email string, purpose challenge.Purpose) (bool, error) {
	latest, err := s.challenges.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up challenge: %w", err)
	}
	return s.now().Sub(latest.LastSentAt) < s.config.ResendCooldown, nil
}

// issueChallenge replaces any challenge for (email, purpose) with a fresh one
// and returns the plaintext code.
func (s *Service) issueChallenge(ctx context.Context, email string, purpose challenge.Purpose) (string, error) {
	if err := s.challenges.DeleteAll(ctx, email, purpose); err != nil {
		return "", fmt.Errorf("failed to clear previous challenges: %w", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.config.OTPTTL)
	if _, err := s.challenges.Create(ctx, email, purpose, HashOTP(code), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}

	return code, nil
}

// checkChallenge validates otp against the active challenge. A mismatch costs
// one attempt; once the cap is reached even the right code is refused until a
// new one is issued.
func (s *Service) checkChallenge(ctx context.Context, email, otp string, purpose challenge.Purpose) error {
	c, err := s.challenges.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return newError(KindInvalidOrExpired, MsgInvalidOrExpiredOTP)
		}
		return fmt.Errorf("failed to look up challenge: %w", err)
	}

	if c.Expired(s.now()) {
		if err := s.challenges.DeleteAll(ctx, email, purpose); err != nil {
			s.log.Warn("failed to delete expired challenge", zap.Error(err))
		}
		return newError(KindInvalidOrExpired, MsgInvalidOrExpiredOTP)
	}

	if c.Attempts >= s.config.MaxOTPAttempts {
		return newError(KindRateLimited, MsgTooManyAttempts)
	}

	if !CompareDigests(HashOTP(otp), c.OTPHash) {
		if err := s.challenges.IncrementAttempts(ctx, c.ID); err != nil && !errors.Is(err, challenge.ErrNotFound) {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		s.log.Warn("otp mismatch",
			zap.String("email", email),
			zap.String("purpose", string(purpose)),
			zap.Int("attempts", c.Attempts+1))
		return newError(KindInvalidOrExpired, MsgInvalidOrExpiredOTP)
	}

	return nil
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: token, User: user.View()}, nil
}

// dummyPasswordHash is compared against when no account matches so that
// unknown emails cost the same bcrypt work as wrong passwords.
func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.HashPassword("not-a-real-password")
		if err != nil {
			s.log.Error("failed to build dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) dispatch(ctx context.Context, fn func(ctx context.Context)) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncSendTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		fn(detached)
	}()
}
