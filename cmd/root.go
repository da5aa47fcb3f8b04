/*
ytdlstem is a command-line client for a media processing backend: it
downloads media, separates stems and builds karaoke tracks.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/services"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	backendURL string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytdlstem",
	Short: "ytdlstem - media download, stem separation and karaoke client",
	Long: `ytdlstem drives a YTDLStem backend from the command line.

Three independent pipelines are available:
  - download  fetch a video or audio track in a chosen format
  - stems     separate a track into vocals, drums, bass and other
  - karaoke   produce an instrumental and a vocals track

Every pipeline accepts a media URL (YouTube, SoundCloud, Spotify) or free text,
which is searched on YouTube. Stems and karaoke also accept a local audio file.
Jobs run on the backend; the client polls their progress and prints download
links for the finished files.

Example:
  ytdlstem search "mad world"
  ytdlstem download https://youtu.be/dQw4w9WgXcQ --audio
  ytdlstem stems song.mp3 --stems vocals,drums --output ./out
  ytdlstem serve`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if appErr := lib.ClassifyError(err); appErr != nil && verbose {
			fmt.Fprint(os.Stderr, appErr.UserMessage())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ytdlstem.yaml, ~/.config/ytdlstem/ytdlstem.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides backend.base_url)")

	// Add version template
	rootCmd.SetVersionTemplate("ytdlstem version {{.Version}}\n")
}

// loadConfig loads the configuration and applies global flag overrides
func loadConfig() (*models.ProjectConfig, error) {
	if backendURL != "" {
		services.SetConfigValue("backend.base_url", backendURL)
	}
	if verbose {
		services.SetConfigValue("log.level", "debug")
	}

	config, err := services.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config, nil
}

// newLogger creates the command logger from the log section of config
func newLogger(config *models.ProjectConfig) *lib.Logger {
	level := lib.ParseLogLevel(config.Log.Level)
	if verbose {
		level = lib.LogLevelDebug
	}
	return lib.NewLoggerWithWriter(level, os.Stderr, config.Log.Format == models.LogFormatJSON)
}
