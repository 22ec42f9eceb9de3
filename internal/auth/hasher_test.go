package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_PasswordRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, h.ComparePassword("secret123", hash))

	// Any single-character mutation must fail.
	for _, mutated := range []string{"secret12", "secret1234", "Secret123", "secret124", "xecret123"} {
		assert.False(t, h.ComparePassword(mutated, hash), mutated)
	}
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.HashPassword("secret123")
	require.NoError(t, err)
	b, err := h.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}

func TestHashOTP(t *testing.T) {
	digest := HashOTP("123456")
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, HashOTP("123456"))
	assert.NotEqual(t, digest, HashOTP("123457"))
}

func TestCompareDigests(t *testing.T) {
	digest := HashOTP("123456")

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "equal", a: digest, b: HashOTP("123456"), want: true},
		{name: "different content", a: digest, b: HashOTP("654321")},
		{name: "different length", a: digest, b: digest[:62]},
		{name: "not hex", a: digest, b: "zz" + digest[2:]},
		{name: "empty", a: "", b: digest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareDigests(tt.a, tt.b))
		})
	}
}
