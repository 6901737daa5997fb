package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKey    = "notify:pending"
	permissionKey = "notify:permission"
)

// RedisSink implements Sink on top of Redis. Pending entries live in a
// hash keyed by notification id; the permission flag is a plain key kept
// in sync by the device bridge when the user answers the OS prompt.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a Redis-backed notification sink.
func NewRedisSink(redisURL string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{client: client}, nil
}

// NewRedisSinkWithClient creates a sink over an existing Redis client.
func NewRedisSinkWithClient(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

// RequestPermission records a permission grant. The device bridge relays
// the actual OS prompt result here; server-side callers treat a
// successful write as granted.
func (s *RedisSink) RequestPermission(ctx context.Context) (bool, error) {
	if err := s.client.Set(ctx, permissionKey, "granted", 0).Err(); err != nil {
		return false, fmt.Errorf("failed to record permission grant: %w", err)
	}
	return true, nil
}

// CheckPermission reports whether permission has been granted.
func (s *RedisSink) CheckPermission(ctx context.Context) (bool, error) {
	value, err := s.client.Get(ctx, permissionKey).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read permission state: %w", err)
	}
	return value == "granted", nil
}

// Schedule registers entries in the pending hash, replacing any entry
// that already carries the same id.
func (s *RedisSink) Schedule(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make(map[string]any, len(entries))
	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %d: %w", entry.ID, err)
		}
		fields[strconv.FormatInt(int64(entry.ID), 10)] = payload
	}

	if err := s.client.HSet(ctx, pendingKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to schedule entries: %w", err)
	}
	return nil
}

// ListPending returns every entry not yet delivered.
func (s *RedisSink) ListPending(ctx context.Context) ([]Entry, error) {
	values, err := s.client.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for field, payload := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending entry %s: %w", field, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Cancel removes entries by id. Ids without a pending entry are ignored.
func (s *RedisSink) Cancel(ctx context.Context, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(int64(id), 10)
	}

	if err := s.client.HDel(ctx, pendingKey, fields...).Err(); err != nil {
		return fmt.Errorf("failed to cancel entries: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

var _ Sink = (*RedisSink)(nil)
