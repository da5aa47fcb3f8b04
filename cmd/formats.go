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

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the downloadable formats of a media URL",
	Long: `List the video and audio formats the backend can produce for a URL.

The recommended format of each kind is marked with '*'; it is the default
selection of the download command.

Examples:
  ytdlstem formats https://youtu.be/dQw4w9WgXcQ
  ytdlstem formats https://open.spotify.com/track/abc`,
	Args: cobra.ExactArgs(1),
	RunE: runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
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

	fs, err := session.Backend().Formats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list formats: %w", err)
	}

	printFormatSet(cmd.OutOrStdout(), fs)
	return nil
}

func printFormatSet(out io.Writer, fs *models.FormatSet) {
	md := fs.Metadata
	if md.Title != "" {
		fmt.Fprintf(out, "%s\n", md.Title)
	}
	details := []string{}
	if md.Channel != "" {
		details = append(details, md.Channel)
	}
	if md.Duration != nil {
		details = append(details, ui.FormatMediaDuration(md.Duration))
	}
	if md.ViewCount != nil {
		details = append(details, ui.FormatCount(md.ViewCount)+" views")
	}
	if len(details) > 0 {
		fmt.Fprintf(out, "%s\n", strings.Join(details, " · "))
	}

	for _, kind := range []models.MediaKind{models.MediaKindVideo, models.MediaKindAudio} {
		list := fs.List(kind)
		fmt.Fprintf(out, "\n%s formats (%d):\n", kind, len(list))
		for _, f := range list {
			fmt.Fprintf(out, "  %s %-8s %-5s %s\n", recommendedMark(f), f.FormatID, f.Ext, describeFormat(f))
		}
	}
}

func recommendedMark(f models.FormatDescriptor) string {
	if f.Recommended {
		return "*"
	}
	return " "
}

func describeFormat(f models.FormatDescriptor) string {
	parts := []string{}
	if f.Resolution != "" {
		parts = append(parts, f.Resolution)
	}
	if f.FPS != nil {
		parts = append(parts, fmt.Sprintf("%gfps", *f.FPS))
	}
	if f.AudioBitrate != nil {
		parts = append(parts, fmt.Sprintf("%gk", *f.AudioBitrate))
	}
	if f.Note != "" {
		parts = append(parts, f.Note)
	}
	if f.FileSize != nil {
		parts = append(parts, ui.FormatFileSize(f.FileSize))
	}
	return strings.Join(parts, "  ")
}
