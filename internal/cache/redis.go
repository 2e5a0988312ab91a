package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"hackbutton/internal/config"
	"hackbutton/pkg/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements caching using Redis
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// Cache interface defines caching operations
type Cache interface {
	// Leaderboard caching
	SetTopScores(hardMode bool, entries []models.LeaderboardEntry, expiration time.Duration) error
	GetTopScores(hardMode bool) ([]models.LeaderboardEntry, error)
	InvalidateTopScores(hardMode bool) error

	// Generic operations
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	Exists(key string) bool
	Close() error
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	// Create Redis client
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")

	return &RedisCache{
		client: rdb,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Set stores a value in Redis
func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(r.ctx, key, data, expiration).Err()
}

// Get retrieves a value from Redis
func (r *RedisCache) Get(key string, dest interface{}) error {
	data, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found")
		}
		return fmt.Errorf("failed to get value: %w", err)
	}

	return json.Unmarshal([]byte(data), dest)
}

// Delete removes a key from Redis
func (r *RedisCache) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// Exists checks if a key exists in Redis
func (r *RedisCache) Exists(key string) bool {
	result, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false
	}
	return result > 0
}

func leaderboardKey(hardMode bool) string {
	return fmt.Sprintf("leaderboard:%s", models.ModeName(hardMode))
}

// SetTopScores caches the top list for a mode
func (r *RedisCache) SetTopScores(hardMode bool, entries []models.LeaderboardEntry, expiration time.Duration) error {
	return r.Set(leaderboardKey(hardMode), entries, expiration)
}

// GetTopScores retrieves the cached top list for a mode
func (r *RedisCache) GetTopScores(hardMode bool) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := r.Get(leaderboardKey(hardMode), &entries)
	return entries, err
}

// InvalidateTopScores removes the cached top list for a mode
func (r *RedisCache) InvalidateTopScores(hardMode bool) error {
	return r.Delete(leaderboardKey(hardMode))
}
