package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/didyoudo/didyoudo/internal/prefs"
)

type exportedSettings struct {
	Reminders struct {
		Time                 string `yaml:"time"`
		NotificationsEnabled bool   `yaml:"notificationsEnabled"`
	} `yaml:"reminders"`
	WeeklyReport struct {
		Email string `yaml:"email,omitempty"`
		Day   string `yaml:"day"`
		Time  string `yaml:"time"`
	} `yaml:"weeklyReport"`
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export preferences as YAML",
		Long:  "Export the current preference profile as YAML, to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPrefStore()
			if err != nil {
				return err
			}
			defer closePrefStore(store)

			ctx := context.Background()

			var settings exportedSettings
			hour, minute := prefs.ReminderTime(ctx, store)
			settings.Reminders.Time = prefs.FormatTime(hour, minute)
			settings.Reminders.NotificationsEnabled = prefs.NotificationsEnabled(ctx, store)

			reportEmail, err := prefValue(ctx, store, prefs.KeyReportEmail, "")
			if err != nil {
				return err
			}
			settings.WeeklyReport.Email = reportEmail

			reportDay, err := prefValue(ctx, store, prefs.KeyReportDay, prefs.DefaultReportDay)
			if err != nil {
				return err
			}
			settings.WeeklyReport.Day = reportDay

			reportTime, err := prefValue(ctx, store, prefs.KeyReportTime, prefs.DefaultReportTime)
			if err != nil {
				return err
			}
			settings.WeeklyReport.Time = reportTime

			encoded, err := yaml.Marshal(&settings)
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}

			if output == "" {
				fmt.Print(string(encoded))
				return nil
			}

			if err := os.WriteFile(output, encoded, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Settings exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "File to write instead of stdout")

	return cmd
}
