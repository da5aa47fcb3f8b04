package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/ui"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Long: `Check the backend health endpoint and print its queue size.

Examples:
  ytdlstem health
  ytdlstem health --backend http://media-box:8000`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(config)

	session, err := pipeline.NewSessionFromConfig(config, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	spinner := ui.NewSpinner(fmt.Sprintf("Checking %s", config.Backend.BaseURL), out)
	spinner.Start()

	health, err := session.Backend().Health(cmd.Context())
	spinner.Stop(err == nil)
	if err != nil {
		return fmt.Errorf("backend is not reachable: %w", err)
	}

	fmt.Fprintf(out, "Status: %s\n", health.Status)
	fmt.Fprintf(out, "Queued jobs: %d\n", health.QueueSize)
	return nil
}
