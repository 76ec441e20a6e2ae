package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trophykit/core"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store keeps credential pairs in Redis, one hash per game:
// - game:{game_id}:credentials -> hash{username, token}
// Useful when several machines (kiosks, test rigs) share one saved login.
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed store with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func credentialsKey(gameID int) string {
	return fmt.Sprintf("game:%d:credentials", gameID)
}

func (s *Store) Read(ctx context.Context, gameID int) (*core.Credentials, error) {
	fields, err := s.client.HGetAll(ctx, credentialsKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	creds := core.Credentials{Username: fields["username"], Token: fields["token"]}
	if !creds.Valid() {
		// a torn write left half a pair behind; treat as absent
		return nil, nil
	}
	return &creds, nil
}

func (s *Store) Write(ctx context.Context, gameID int, creds *core.Credentials) error {
	key := credentialsKey(gameID)
	if creds == nil || !creds.Valid() {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		return nil
	}
	err := s.client.HSet(ctx, key, "username", creds.Username, "token", creds.Token).Err()
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
