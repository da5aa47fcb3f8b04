package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/ui"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search YouTube through the backend",
	Long: `Search YouTube for media matching a query.

Each result is printed with its index, title, channel, duration and URL.
The URL (or the query itself) can be passed to download, stems or karaoke.

Examples:
  ytdlstem search "mad world"
  ytdlstem search gary jules mad world`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	results, err := session.Backend().Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "No results for %q\n", query)
		return nil
	}
	printSearchResults(out, results)
	return nil
}

func printSearchResults(out io.Writer, results []models.SearchResult) {
	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s\n", i, r.Title)
		details := []string{}
		if r.Channel != "" {
			details = append(details, r.Channel)
		}
		if r.Duration != nil {
			details = append(details, ui.FormatMediaDuration(r.Duration))
		}
		if r.ViewCount != nil {
			details = append(details, ui.FormatCount(r.ViewCount)+" views")
		}
		if len(details) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(details, " · "))
		}
		fmt.Fprintf(out, "    %s\n", r.URL)
	}
}
