package challenge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// incrementAttemptsLua bumps the attempt counter without recreating a hash
// that has already expired.
// KEYS[1] = challenge hash key
// Returns the new count, or -1 when the challenge is gone.
var incrementAttemptsLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// deleteAllLua removes every challenge listed in the id set together with the
// set and the latest pointer.
// KEYS[1] = id set key, KEYS[2] = latest pointer key
// ARGV[1] = challenge hash key prefix
// Returns the number of challenge ids that were listed.
var deleteAllLua = redis.NewScript(`
local ids = redis.call('SMEMBERS', KEYS[1])
for _, id in ipairs(ids) do
  redis.call('DEL', ARGV[1] .. id)
end
redis.call('DEL', KEYS[1], KEYS[2])
return #ids
`)

// redisStore keeps each challenge in a hash, a pointer from (purpose, email)
// to the active challenge id, and a set of every id issued for that pair.
// All keys carry the challenge expiry as their TTL, so redis drops them
// physically.
type redisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(redisClient redis.UniversalClient, prefix string) Store {
	if prefix == "" {
		prefix = "otp"
	}
	return &redisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *redisStore) challengeKey(id string) string {
	return s.challengePrefix() + id
}

func (s *redisStore) challengePrefix() string {
	return s.prefix + ":challenge:"
}

func (s *redisStore) idsKey(email string, purpose Purpose) string {
	return s.prefix + ":ids:" + string(purpose) + ":" + email
}

func (s *redisStore) latestKey(email string, purpose Purpose) string {
	return s.prefix + ":latest:" + string(purpose) + ":" + email
}

func (s *redisStore) FindLatest(ctx context.Context, email string, purpose Purpose) (*Challenge, error) {
	latestKey := s.latestKey(email, purpose)

	id, err := s.redis.Get(ctx, latestKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read challenge pointer: %w", err)
	}

	fields, err := s.redis.HGetAll(ctx, s.challengeKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge: %w", err)
	}
	if len(fields) == 0 {
		if err := s.redis.Del(ctx, latestKey).Err(); err != nil {
			return nil, fmt.Errorf("failed to drop stale challenge pointer: %w", err)
		}
		return nil, ErrNotFound
	}

	c, err := decodeChallenge(fields)
	if err != nil {
		return nil, err
	}

	if c.Expired(s.now()) {
		_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, latestKey, s.challengeKey(id))
			pipe.SRem(ctx, s.idsKey(email, purpose), id)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired challenge: %w", err)
		}
		return nil, ErrNotFound
	}

	return c, nil
}

func (s *redisStore) DeleteAll(ctx context.Context, email string, purpose Purpose) error {
	keys := []string{s.idsKey(email, purpose), s.latestKey(email, purpose)}
	if err := deleteAllLua.Run(ctx, s.redis, keys, s.challengePrefix()).Err(); err != nil {
		return fmt.Errorf("failed to delete challenges: %w", err)
	}
	return nil
}

func (s *redisStore) Create(ctx context.Context, email string, purpose Purpose, otpHash string, expiresAt time.Time) (*Challenge, error) {
	now := s.now()
	c := &Challenge{
		ID:         uuid.NewString(),
		Email:      email,
		Purpose:    purpose,
		OTPHash:    otpHash,
		ExpiresAt:  expiresAt,
		LastSentAt: now,
		CreatedAt:  now,
	}

	key := s.challengeKey(c.ID)
	latestKey := s.latestKey(email, purpose)
	idsKey := s.idsKey(email, purpose)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, encodeChallenge(c))
		pipe.PExpireAt(ctx, key, expiresAt)
		pipe.Set(ctx, latestKey, c.ID, 0)
		pipe.PExpireAt(ctx, latestKey, expiresAt)
		pipe.SAdd(ctx, idsKey, c.ID)
		pipe.PExpireAt(ctx, idsKey, expiresAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	return c, nil
}

func (s *redisStore) IncrementAttempts(ctx context.Context, id string) error {
	attempts, err := incrementAttemptsLua.Run(ctx, s.redis, []string{s.challengeKey(id)}).Int64()
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	if attempts < 0 {
		return ErrNotFound
	}
	return nil
}

func encodeChallenge(c *Challenge) map[string]interface{} {
	return map[string]interface{}{
		"id":           c.ID,
		"email":        c.Email,
		"purpose":      string(c.Purpose),
		"otp_hash":     c.OTPHash,
		"expires_at":   c.ExpiresAt.UnixMilli(),
		"attempts":     c.Attempts,
		"last_sent_at": c.LastSentAt.UnixMilli(),
		"created_at":   c.CreatedAt.UnixMilli(),
	}
}

func decodeChallenge(fields map[string]string) (*Challenge, error) {
	millis := func(name string) (time.Time, error) {
		v, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid challenge field %s: %w", name, err)
		}
		return time.UnixMilli(v), nil
	}

	expiresAt, err := millis("expires_at")
	if err != nil {
		return nil, err
	}
	lastSentAt, err := millis("last_sent_at")
	if err != nil {
		return nil, err
	}
	createdAt, err := millis("created_at")
	if err != nil {
		return nil, err
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("invalid challenge field attempts: %w", err)
	}

	return &Challenge{
		ID:         fields["id"],
		Email:      fields["email"],
		Purpose:    Purpose(fields["purpose"]),
		OTPHash:    fields["otp_hash"],
		ExpiresAt:  expiresAt,
		Attempts:   attempts,
		LastSentAt: lastSentAt,
		CreatedAt:  createdAt,
	}, nil
}
