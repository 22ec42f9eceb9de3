package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ValidationError reports a rejected wallet field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateInput carries a new wallet. Nil fields take their defaults.
type CreateInput struct {
	Name     string   `json:"name"`
	Type     *Type    `json:"type"`
	Currency *string  `json:"currency"`
	Balance  *float64 `json:"balance"`
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Name     *string  `json:"name"`
	Type     *Type    `json:"type"`
	Currency *string  `json:"currency"`
	Balance  *float64 `json:"balance"`
}

type Service struct {
	repository Repository
	log        *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{
		repository: repo,
		log:        log,
	}
}

// List returns the caller's visible wallets, default first then newest.
func (s *Service) List(ctx context.Context, userID string) ([]Wallet, error) {
	wallets, err := s.repository.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	if wallets == nil {
		wallets = []Wallet{}
	}
	return wallets, nil
}

// Create adds a wallet. The first visible wallet of a user becomes default.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Wallet, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Wallet name is required"}
	}

	w := &Wallet{
		UserID:   userID,
		Name:     name,
		Type:     TypeCash,
		Currency: DefaultCurrency,
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, invalidType()
		}
		w.Type = *in.Type
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		w.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Balance != nil {
		w.Balance = *in.Balance
	}

	err := s.repository.Transaction(ctx, func(repo Repository) error {
		hasAny, err := repo.HasVisible(ctx, userID)
		if err != nil {
			return err
		}
		w.IsDefault = !hasAny
		return repo.Create(ctx, w)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.log.Info("wallet created",
		zap.String("user_id", userID),
		zap.String("wallet_id", w.ID),
		zap.Bool("default", w.IsDefault))
	return w, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*Wallet, error) {
	w, err := s.repository.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "Wallet name is required"}
		}
		w.Name = name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, invalidType()
		}
		w.Type = *in.Type
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		w.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Balance != nil {
		w.Balance = *in.Balance
	}

	if err := s.repository.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return w, nil
}

// Delete hides a wallet. When that leaves the user without a default, the
// newest visible wallet is promoted.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repository.Transaction(ctx, func(repo Repository) error {
		w, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}

		w.IsHidden = true
		w.IsDefault = false
		if err := repo.Save(ctx, w); err != nil {
			return err
		}

		hasDefault, err := repo.HasDefault(ctx, userID)
		if err != nil || hasDefault {
			return err
		}

		next, err := repo.NewestVisible(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		next.IsDefault = true
		return repo.Save(ctx, next)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete wallet: %w", err)
	}

	s.log.Info("wallet hidden", zap.String("user_id", userID), zap.String("wallet_id", id))
	return nil
}

// SetDefault makes id the user's only default wallet.
func (s *Service) SetDefault(ctx context.Context, userID, id string) error {
	err := s.repository.Transaction(ctx, func(repo Repository) error {
		w, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		w.IsDefault = true
		return repo.Save(ctx, w)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to set default wallet: %w", err)
	}
	return nil
}

func invalidType() *ValidationError {
	return &ValidationError{Field: "type", Message: "Type must be one of CASH, BANK, EWALLET"}
}
