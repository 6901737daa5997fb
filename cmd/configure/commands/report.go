package commands

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"github.com/didyoudo/didyoudo/internal/prefs"
)

var validReportDays = map[string]bool{
	"sunday":    true,
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var email string
	var day string
	var reportTime string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Configure the weekly report",
		Long:  "Set the weekly report recipient, day of week and send time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" && day == "" && reportTime == "" {
				return fmt.Errorf("nothing to do: pass --email, --day or --time")
			}

			store, err := openPrefStore()
			if err != nil {
				return err
			}
			defer closePrefStore(store)

			ctx := context.Background()

			if email != "" {
				if _, err := mail.ParseAddress(email); err != nil {
					return fmt.Errorf("invalid --email %q: %w", email, err)
				}
				if err := store.Set(ctx, prefs.KeyReportEmail, email); err != nil {
					return fmt.Errorf("failed to save report email: %w", err)
				}
				fmt.Printf("Report email set to %s\n", email)
			}

			if day != "" {
				normalized := strings.ToLower(day)
				if !validReportDays[normalized] {
					return fmt.Errorf("invalid --day %q: expected a lowercase English weekday", day)
				}
				if err := store.Set(ctx, prefs.KeyReportDay, normalized); err != nil {
					return fmt.Errorf("failed to save report day: %w", err)
				}
				fmt.Printf("Report day set to %s\n", normalized)
			}

			if reportTime != "" {
				hour, minute, err := prefs.ParseTime(reportTime)
				if err != nil {
					return fmt.Errorf("invalid --time %q: %w", reportTime, err)
				}
				if err := store.Set(ctx, prefs.KeyReportTime, prefs.FormatTime(hour, minute)); err != nil {
					return fmt.Errorf("failed to save report time: %w", err)
				}
				fmt.Printf("Report time set to %s\n", prefs.FormatTime(hour, minute))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Weekly report recipient address")
	cmd.Flags().StringVar(&day, "day", "", "Weekly report day (e.g. sunday)")
	cmd.Flags().StringVar(&reportTime, "time", "", "Weekly report send time (HH:MM)")

	return cmd
}
