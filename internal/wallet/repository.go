package wallet

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("wallet not found")

// Repository stores wallets. Every lookup is scoped to the owning user and
// ignores hidden wallets.
type Repository interface {
	ListVisible(ctx context.Context, userID string) ([]Wallet, error)
	Get(ctx context.Context, userID, id string) (*Wallet, error)
	NewestVisible(ctx context.Context, userID string) (*Wallet, error)
	HasVisible(ctx context.Context, userID string) (bool, error)
	HasDefault(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, w *Wallet) error
	Save(ctx context.Context, w *Wallet) error
	ClearDefault(ctx context.Context, userID string) error
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) visible(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Wallet{}).
		Where("user_id = ? AND is_hidden = ?", userID, false)
}

func (r *repository) ListVisible(ctx context.Context, userID string) ([]Wallet, error) {
	var wallets []Wallet
	err := r.visible(ctx, userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&wallets).Error
	return wallets, err
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Wallet, error) {
	var w Wallet
	if err := r.visible(ctx, userID).Where("id = ?", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) NewestVisible(ctx context.Context, userID string) (*Wallet, error) {
	var w Wallet
	if err := r.visible(ctx, userID).Order("created_at DESC").First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) HasVisible(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.visible(ctx, userID).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *repository) HasDefault(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.visible(ctx, userID).Where("is_default = ?", true).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, w *Wallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *repository) Save(ctx context.Context, w *Wallet) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *repository) ClearDefault(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&Wallet{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *repository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
