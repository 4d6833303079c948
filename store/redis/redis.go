// Package redis provides a RunStore backed by Redis. Runs are stored as
// JSON values and indexed per session with a set, with optional TTL.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/research-assistant/store"
)

// RedisRunStore implements store.RunStore using Redis
type RedisRunStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "research:"
	TTL      time.Duration // Expiration for runs, default 0 (no expiration)
}

// NewRedisRunStore creates a new Redis run store
func NewRedisRunStore(opts RedisOptions) *RedisRunStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "research:"
	}

	return &RedisRunStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Close closes the Redis client.
func (s *RedisRunStore) Close() error {
	return s.client.Close()
}

func (s *RedisRunStore) runKey(id string) string {
	return fmt.Sprintf("%srun:%s", s.prefix, id)
}

func (s *RedisRunStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s:runs", s.prefix, id)
}

// Save stores a run
func (s *RedisRunStore) Save(ctx context.Context, run *store.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	key := s.runKey(run.ID)
	pipe := s.client.Pipeline()

	pipe.Set(ctx, key, data, s.ttl)

	if run.SessionID != "" {
		sessKey := s.sessionKey(run.SessionID)
		pipe.SAdd(ctx, sessKey, run.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, sessKey, s.ttl)
		}
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save run to redis: %w", err)
	}

	return nil
}

// Load retrieves a run by ID
func (s *RedisRunStore) Load(ctx context.Context, runID string) (*store.Run, error) {
	key := s.runKey(runID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run from redis: %w", err)
	}

	var run store.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}

// ListBySession returns all runs for a given session, oldest first
func (s *RedisRunStore) ListBySession(ctx context.Context, sessionID string) ([]*store.Run, error) {
	sessKey := s.sessionKey(sessionID)
	runIDs, err := s.client.SMembers(ctx, sessKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for session %s: %w", sessionID, err)
	}

	if len(runIDs) == 0 {
		return []*store.Run{}, nil
	}

	var keys []string
	for _, id := range runIDs {
		keys = append(keys, s.runKey(id))
	}

	// MGet returns nil for expired keys, which we skip.
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	var runs []*store.Run
	for _, result := range results {
		if result == nil {
			continue
		}

		strData, ok := result.(string)
		if !ok {
			continue
		}

		var run store.Run
		if err := json.Unmarshal([]byte(strData), &run); err != nil {
			continue
		}
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})

	return runs, nil
}

// Delete removes a run
func (s *RedisRunStore) Delete(ctx context.Context, runID string) error {
	// Load first to find the session index to clean up
	run, err := s.Load(ctx, runID)
	if err != nil {
		return err
	}

	key := s.runKey(runID)
	pipe := s.client.Pipeline()

	pipe.Del(ctx, key)

	if run.SessionID != "" {
		pipe.SRem(ctx, s.sessionKey(run.SessionID), runID)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return nil
}

// Clear removes all runs for a session
func (s *RedisRunStore) Clear(ctx context.Context, sessionID string) error {
	sessKey := s.sessionKey(sessionID)
	runIDs, err := s.client.SMembers(ctx, sessKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get runs for clearing: %w", err)
	}

	if len(runIDs) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, id := range runIDs {
		pipe.Del(ctx, s.runKey(id))
	}

	pipe.Del(ctx, sessKey)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}

	return nil
}
