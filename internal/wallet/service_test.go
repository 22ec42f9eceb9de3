package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, zap.NewNop()), repo
}

func ptr[T any](v T) *T {
	return &v
}

func createWallet(t *testing.T, svc *Service, userID, name string) *Wallet {
	t.Helper()
	w, err := svc.Create(context.Background(), userID, CreateInput{Name: name})
	require.NoError(t, err)
	return w
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first := createWallet(t, svc, "u1", "  Cash  ")
	assert.Equal(t, "Cash", first.Name)
	assert.Equal(t, TypeCash, first.Type)
	assert.Equal(t, DefaultCurrency, first.Currency)
	assert.Zero(t, first.Balance)
	assert.True(t, first.IsDefault, "first wallet becomes default")

	second, err := svc.Create(ctx, "u1", CreateInput{
		Name:     "Bank",
		Type:     ptr(TypeBank),
		Currency: ptr("usd"),
		Balance:  ptr(12.5),
	})
	require.NoError(t, err)
	assert.Equal(t, TypeBank, second.Type)
	assert.Equal(t, "USD", second.Currency)
	assert.Equal(t, 12.5, second.Balance)
	assert.False(t, second.IsDefault)

	other := createWallet(t, svc, "u2", "Other")
	assert.True(t, other.IsDefault, "defaults are per user")
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{name: "blank name", in: CreateInput{Name: "   "}, field: "name"},
		{name: "unknown type", in: CreateInput{Name: "X", Type: ptr(Type("CRYPTO"))}, field: "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.in)
			var invalid *ValidationError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestService_ListOrdersDefaultFirstThenNewest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := createWallet(t, svc, "u1", "A")
	b := createWallet(t, svc, "u1", "B")
	c := createWallet(t, svc, "u1", "C")
	createWallet(t, svc, "u2", "not mine")

	wallets, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, []string{wallets[0].ID, wallets[1].ID, wallets[2].ID})

	empty, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_Update(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	w := createWallet(t, svc, "u1", "Cash")

	updated, err := svc.Update(ctx, "u1", w.ID, UpdateInput{Name: ptr(" Pocket "), Balance: ptr(99.0)})
	require.NoError(t, err)
	assert.Equal(t, "Pocket", updated.Name)
	assert.Equal(t, 99.0, updated.Balance)
	assert.Equal(t, TypeCash, updated.Type, "untouched fields are kept")

	_, err = svc.Update(ctx, "u2", w.ID, UpdateInput{Name: ptr("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "u1", w.ID, UpdateInput{Type: ptr(Type("GOLD"))})
	var invalid *ValidationError
	assert.True(t, errors.As(err, &invalid))
}

func TestService_DeletePromotesNewest(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := createWallet(t, svc, "u1", "A")
	createWallet(t, svc, "u1", "B")
	c := createWallet(t, svc, "u1", "C")

	require.NoError(t, svc.Delete(ctx, "u1", a.ID))

	hidden := repo.raw(a.ID)
	assert.True(t, hidden.IsHidden)
	assert.False(t, hidden.IsDefault)
	assert.True(t, repo.raw(c.ID).IsDefault)

	wallets, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
	assert.Equal(t, c.ID, wallets[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, "u1", a.ID), ErrNotFound, "hidden wallets are gone")
}

func TestService_DeleteLastWallet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := createWallet(t, svc, "u1", "A")

	require.NoError(t, svc.Delete(ctx, "u1", a.ID))

	// The next wallet created becomes default again.
	b := createWallet(t, svc, "u1", "B")
	assert.True(t, b.IsDefault)
}

func TestService_SetDefault(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := createWallet(t, svc, "u1", "A")
	b := createWallet(t, svc, "u1", "B")

	require.NoError(t, svc.SetDefault(ctx, "u1", b.ID))
	assert.True(t, repo.raw(b.ID).IsDefault)
	assert.False(t, repo.raw(a.ID).IsDefault)

	assert.ErrorIs(t, svc.SetDefault(ctx, "u2", a.ID), ErrNotFound)
	assert.ErrorIs(t, svc.SetDefault(ctx, "u1", "missing"), ErrNotFound)
}
