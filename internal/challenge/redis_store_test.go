package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStoreTest(t *testing.T) (*redisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test").(*redisStore), mr
}

func TestRedisStore_CreateAndFindLatest(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(10 * time.Minute)

	created, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash", expiresAt)
	require.NoError(t, err)

	got, err := store.FindLatest(ctx, "a@x.com", PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, PurposeVerifyEmail, got.Purpose)
	assert.Equal(t, "hash", got.OTPHash)
	assert.Equal(t, 0, got.Attempts)
	assert.WithinDuration(t, expiresAt, got.ExpiresAt, time.Millisecond)

	ttl := mr.TTL(store.challengeKey(created.ID))
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	_, err = store.FindLatest(ctx, "a@x.com", PurposeResetPassword)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_PhysicalExpiry(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	_, err = store.FindLatest(ctx, "a@x.com", PurposeVerifyEmail)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_LogicalExpiryDeletesKeys(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, err = store.FindLatest(ctx, "a@x.com", PurposeVerifyEmail)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(store.challengeKey(created.ID)))
	assert.False(t, mr.Exists(store.latestKey("a@x.com", PurposeVerifyEmail)))
	assert.False(t, mr.Exists(store.idsKey("a@x.com", PurposeVerifyEmail)))
}

func TestRedisStore_IncrementAttempts(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash", time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, store.IncrementAttempts(ctx, created.ID))
	require.NoError(t, store.IncrementAttempts(ctx, created.ID))

	got, err := store.FindLatest(ctx, "a@x.com", PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)

	err = store.IncrementAttempts(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(store.challengeKey("missing")))
}

func TestRedisStore_DeleteAll(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "a@x.com", PurposeResetPassword, "hash", time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, store.DeleteAll(ctx, "a@x.com", PurposeResetPassword))
	assert.False(t, mr.Exists(store.challengeKey(created.ID)))

	_, err = store.FindLatest(ctx, "a@x.com", PurposeResetPassword)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting nothing is not an error
	assert.NoError(t, store.DeleteAll(ctx, "nobody@x.com", PurposeResetPassword))
}

func TestRedisStore_DeleteAllRemovesEveryChallenge(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(10 * time.Minute)

	first, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash-1", expiresAt)
	require.NoError(t, err)
	second, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash-2", expiresAt)
	require.NoError(t, err)
	other, err := store.Create(ctx, "a@x.com", PurposeResetPassword, "hash-3", expiresAt)
	require.NoError(t, err)

	members, err := mr.Members(store.idsKey("a@x.com", PurposeVerifyEmail))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, members)
	assert.True(t, mr.TTL(store.idsKey("a@x.com", PurposeVerifyEmail)) > 9*time.Minute)

	require.NoError(t, store.DeleteAll(ctx, "a@x.com", PurposeVerifyEmail))

	// the superseded challenge goes too, not just the one the pointer names
	assert.False(t, mr.Exists(store.challengeKey(first.ID)))
	assert.False(t, mr.Exists(store.challengeKey(second.ID)))
	assert.False(t, mr.Exists(store.idsKey("a@x.com", PurposeVerifyEmail)))
	assert.False(t, mr.Exists(store.latestKey("a@x.com", PurposeVerifyEmail)))

	got, err := store.FindLatest(ctx, "a@x.com", PurposeResetPassword)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestRedisStore_DanglingPointer(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "a@x.com", PurposeVerifyEmail, "hash", time.Now().Add(time.Minute))
	require.NoError(t, err)
	mr.Del(store.challengeKey(created.ID))

	_, err = store.FindLatest(ctx, "a@x.com", PurposeVerifyEmail)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(store.latestKey("a@x.com", PurposeVerifyEmail)))
}
