package prefs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Preference keys. Values are stored as strings: times as "HH:MM",
// booleans as "true"/"false".
const (
	KeyReminderTime         = "reminderTime"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyReportEmail          = "weeklyReportEmail"
	KeyReportDay            = "weeklyReportDay"
	KeyReportTime           = "weeklyReportTime"
)

const (
	// DefaultReminderHour is the reminder time used when none is configured
	DefaultReminderHour = 17
	// DefaultReminderMinute is the reminder minute used when none is configured
	DefaultReminderMinute = 0
	// DefaultReportDay is the weekly report day used when none is configured
	DefaultReportDay = "sunday"
	// DefaultReportTime is the weekly report time used when none is configured
	DefaultReportTime = "09:00"
)

const keyPrefix = "prefs:"

// Store is the string key-value preference store.
type Store interface {
	// Get returns the value for key, or "" with found=false when unset.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}

// RedisStore implements Store over Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a preference store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL connects to Redis and returns a preference store.
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
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

	return &RedisStore{client: client}, nil
}

// Get returns the value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)

// ReminderTime reads the configured reminder time, falling back to the
// 17:00 default on absence or malformed values.
func ReminderTime(ctx context.Context, store Store) (hour, minute int) {
	value, found, err := store.Get(ctx, KeyReminderTime)
	if err != nil || !found {
		return DefaultReminderHour, DefaultReminderMinute
	}
	h, m, err := ParseTime(value)
	if err != nil {
		return DefaultReminderHour, DefaultReminderMinute
	}
	return h, m
}

// NotificationsEnabled reads the enabled flag; notifications are on by
// default, so only an explicit "false" disables them.
func NotificationsEnabled(ctx context.Context, store Store) bool {
	value, found, err := store.Get(ctx, KeyNotificationsEnabled)
	if err != nil || !found {
		return true
	}
	return value != "false"
}

// ParseTime parses an "HH:MM" preference value.
func ParseTime(value string) (hour, minute int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// FormatTime renders hour and minute as an "HH:MM" preference value.
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
