package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/elskow/fintrack/internal/config"
)

// NewRedisClient builds a client without dialing; connections are opened on
// first use, so an unused client costs nothing when redis is not selected.
func NewRedisClient(config *config.RedisConfig) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
}
