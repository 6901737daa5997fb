package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/didyoudo/didyoudo/internal/config"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test weekly report",
		Long:  "Ask the running server to send a test weekly report email without archiving tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/api/v1/report/weekly"
			query := url.Values{}
			query.Set("test", "true")
			if email != "" {
				query.Set("email", email)
			}
			endpoint += "?" + query.Encode()

			fmt.Printf("Requesting test report: %s\n", endpoint)

			client := &http.Client{Timeout: 60 * time.Second}
			resp, err := client.Post(endpoint, "application/json", nil)
			if err != nil {
				return fmt.Errorf("failed to reach server: %w", err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
				}
			}()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			var envelope struct {
				Success bool `json:"success"`
				Data    struct {
					Message string `json:"message"`
					EmailID string `json:"emailId"`
				} `json:"data"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(body, &envelope); err != nil {
				return fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, string(body))
			}

			if resp.StatusCode != http.StatusOK || !envelope.Success {
				return fmt.Errorf("test report failed (status %d): %s", resp.StatusCode, envelope.Message)
			}

			fmt.Printf("✓ %s\n", envelope.Data.Message)
			if envelope.Data.EmailID != "" {
				fmt.Printf("  Email ID: %s\n", envelope.Data.EmailID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Override the recipient address for the test")

	return cmd
}
