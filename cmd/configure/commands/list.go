package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/didyoudo/didyoudo/internal/config"
	"github.com/didyoudo/didyoudo/internal/prefs"
)

// openPrefStore loads the configuration and connects to the preference
// store. The caller is responsible for closing the returned store.
func openPrefStore() (*prefs.RedisStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := prefs.NewRedisStoreFromURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return store, nil
}

func closePrefStore(store *prefs.RedisStore) {
	if err := store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close Redis connection: %v\n", err)
	}
}

// prefValue returns the stored value or the given default when unset.
func prefValue(ctx context.Context, store prefs.Store, key, fallback string) (string, error) {
	value, found, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return fallback, nil
	}
	return value, nil
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured preferences",
		Long:  "List reminder and weekly report preferences, with defaults for unset values",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPrefStore()
			if err != nil {
				return err
			}
			defer closePrefStore(store)

			ctx := context.Background()

			reminderTime, err := prefValue(ctx, store, prefs.KeyReminderTime,
				prefs.FormatTime(prefs.DefaultReminderHour, prefs.DefaultReminderMinute))
			if err != nil {
				return err
			}
			enabled, err := prefValue(ctx, store, prefs.KeyNotificationsEnabled, "true")
			if err != nil {
				return err
			}
			reportEmail, err := prefValue(ctx, store, prefs.KeyReportEmail, "(not set)")
			if err != nil {
				return err
			}
			reportDay, err := prefValue(ctx, store, prefs.KeyReportDay, prefs.DefaultReportDay)
			if err != nil {
				return err
			}
			reportTime, err := prefValue(ctx, store, prefs.KeyReportTime, prefs.DefaultReportTime)
			if err != nil {
				return err
			}

			fmt.Println("Reminders:")
			fmt.Printf("  Time: %s\n", reminderTime)
			fmt.Printf("  Notifications enabled: %s\n", enabled)
			fmt.Println()
			fmt.Println("Weekly report:")
			fmt.Printf("  Email: %s\n", reportEmail)
			fmt.Printf("  Day: %s\n", reportDay)
			fmt.Printf("  Time: %s\n", reportTime)

			return nil
		},
	}

	return cmd
}
