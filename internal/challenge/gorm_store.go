package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

func (s *gormStore) FindLatest(ctx context.Context, email string, purpose Purpose) (*Challenge, error) {
	var c Challenge
	err := s.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if c.Expired(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&Challenge{}, "id = ?", c.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to delete expired challenge: %w", err)
		}
		return nil, ErrNotFound
	}

	return &c, nil
}

func (s *gormStore) DeleteAll(ctx context.Context, email string, purpose Purpose) error {
	return s.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&Challenge{}).Error
}

func (s *gormStore) Create(ctx context.Context, email string, purpose Purpose, otpHash string, expiresAt time.Time) (*Challenge, error) {
	now := s.now()
	c := &Challenge{
		ID:         uuid.NewString(),
		Email:      email,
		Purpose:    purpose,
		OTPHash:    otpHash,
		ExpiresAt:  expiresAt,
		Attempts:   0,
		LastSentAt: now,
		CreatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *gormStore) IncrementAttempts(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&Challenge{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&Challenge{})
	return result.RowsAffected, result.Error
}
