package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local bridge server for a browser front end",
	Long: `Run a local HTTP server exposing the three pipelines of one session.

Routes:
  GET  /api/health                         backend health
  GET  /api/pipelines/:kind                current pipeline snapshot
  POST /api/pipelines/:kind/input          {"text": "..."}
  POST /api/pipelines/:kind/select         {"index": 0}
  POST /api/pipelines/:kind/upload         multipart "file"
  POST /api/pipelines/:kind/options        output_kind, format_id, output_format, stems
  POST /api/pipelines/:kind/submit         start a job
  GET  /api/pipelines/:kind/artifacts      download links of the finished job
  GET  /ws/:kind                           websocket stream of snapshots

Examples:
  ytdlstem serve
  ytdlstem serve --addr 127.0.0.1:9000 --backend http://media-box:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(config)

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	session, err := pipeline.NewSessionFromConfig(config, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	addr := config.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving session %s on http://%s (backend %s)\n", session.ID, addr, config.Backend.BaseURL)
	return server.New(session, logger.Named("server")).Run(cmd.Context(), addr)
}
