package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/didyoudo/didyoudo/internal/prefs"
)

// NewRemindersCmd creates the reminders command
func NewRemindersCmd() *cobra.Command {
	var reminderTime string
	var enable bool
	var disable bool

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Configure daily reminders",
		Long:  "Set the daily reminder time and enable or disable reminder notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reminderTime == "" && !enable && !disable {
				return fmt.Errorf("nothing to do: pass --time, --enable or --disable")
			}
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			store, err := openPrefStore()
			if err != nil {
				return err
			}
			defer closePrefStore(store)

			ctx := context.Background()

			if reminderTime != "" {
				hour, minute, err := prefs.ParseTime(reminderTime)
				if err != nil {
					return fmt.Errorf("invalid --time %q: %w", reminderTime, err)
				}
				if err := store.Set(ctx, prefs.KeyReminderTime, prefs.FormatTime(hour, minute)); err != nil {
					return fmt.Errorf("failed to save reminder time: %w", err)
				}
				fmt.Printf("Reminder time set to %s\n", prefs.FormatTime(hour, minute))
			}

			if enable {
				if err := store.Set(ctx, prefs.KeyNotificationsEnabled, "true"); err != nil {
					return fmt.Errorf("failed to enable notifications: %w", err)
				}
				fmt.Println("Notifications enabled")
			}
			if disable {
				if err := store.Set(ctx, prefs.KeyNotificationsEnabled, "false"); err != nil {
					return fmt.Errorf("failed to disable notifications: %w", err)
				}
				fmt.Println("Notifications disabled")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&reminderTime, "time", "", "Daily reminder time (HH:MM)")
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable reminder notifications")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable reminder notifications")

	return cmd
}
