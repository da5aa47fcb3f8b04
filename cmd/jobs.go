package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/services"
	"github.com/ytdlstem/ytdlstem/internal/storage"
	"github.com/ytdlstem/ytdlstem/internal/ui"
)

// jobOptions are the flags shared by download, stems and karaoke
type jobOptions struct {
	pick         int
	audio        bool
	formatID     string
	outputFormat string
	stems        []string
	output       string
	fetch        bool
	noProgress   bool
}

var (
	downloadOpts jobOptions
	stemsOpts    jobOptions
	karaokeOpts  jobOptions
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <url|query>",
	Short: "Download a video or audio track",
	Long: `Download media in a chosen format.

The source is a media URL or a search query; for a query the first result is
used unless --pick selects another one. Without --format the recommended
format of the chosen kind (video, or audio with --audio) is requested.

Examples:
  # Recommended video format
  ytdlstem download https://youtu.be/dQw4w9WgXcQ

  # Recommended audio format of the second search result
  ytdlstem download "mad world" --pick 1 --audio

  # A specific format, saved to ./music
  ytdlstem download https://youtu.be/dQw4w9WgXcQ --audio --format 251 --output ./music`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, models.PipelineDownload, args, downloadOpts)
	},
}

// stemsCmd represents the stems command
var stemsCmd = &cobra.Command{
	Use:   "stems <url|query|file>",
	Short: "Separate a track into stems",
	Long: `Separate a track into vocals, drums, bass and other.

The source is a media URL, a search query or a local audio file
(mp3, wav, flac, m4a, ogg, opus, aac, webm). Without --stems every stem is
produced and an archive of all stems is offered as well.

Examples:
  ytdlstem stems https://youtu.be/dQw4w9WgXcQ
  ytdlstem stems song.flac --stems vocals,drums --output-format wav
  ytdlstem stems "mad world" --output s3://my-bucket/stems`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, models.PipelineStems, args, stemsOpts)
	},
}

// karaokeCmd represents the karaoke command
var karaokeCmd = &cobra.Command{
	Use:   "karaoke <url|query|file>",
	Short: "Create instrumental and vocals tracks",
	Long: `Split a track into an instrumental and a vocals track.

The source is a media URL, a search query or a local audio file.

Examples:
  ytdlstem karaoke https://soundcloud.com/artist/track
  ytdlstem karaoke song.mp3 --output-format wav --output ./karaoke`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, models.PipelineKaraoke, args, karaokeOpts)
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(stemsCmd)
	rootCmd.AddCommand(karaokeCmd)

	for _, c := range []struct {
		cmd  *cobra.Command
		opts *jobOptions
	}{
		{downloadCmd, &downloadOpts},
		{stemsCmd, &stemsOpts},
		{karaokeCmd, &karaokeOpts},
	} {
		f := c.cmd.Flags()
		f.IntVar(&c.opts.pick, "pick", 0, "index of the search result to use for a query")
		f.StringVarP(&c.opts.output, "output", "o", "", "save the finished files to a directory or s3://bucket/prefix")
		f.BoolVar(&c.opts.fetch, "fetch", false, "save the finished files to output.dir from the configuration")
		f.BoolVar(&c.opts.noProgress, "no-progress", false, "Disable progress indicators")
	}

	downloadCmd.Flags().BoolVar(&downloadOpts.audio, "audio", false, "download an audio format instead of video")
	downloadCmd.Flags().StringVarP(&downloadOpts.formatID, "format", "f", "", "format id to download (see 'ytdlstem formats')")

	stemsCmd.Flags().StringVar(&stemsOpts.outputFormat, "output-format", models.OutputFormatMP3, "output container: mp3 or wav")
	stemsCmd.Flags().StringSliceVar(&stemsOpts.stems, "stems", nil, "stems to produce: vocals,drums,bass,other (default all)")

	karaokeCmd.Flags().StringVar(&karaokeOpts.outputFormat, "output-format", models.OutputFormatMP3, "output container: mp3 or wav")

	_ = stemsCmd.RegisterFlagCompletionFunc("stems", fixedCompletions(models.AllStems...))
	for _, c := range []*cobra.Command{stemsCmd, karaokeCmd} {
		_ = c.RegisterFlagCompletionFunc("output-format", fixedCompletions(models.OutputFormatMP3, models.OutputFormatWAV))
	}
}

func runJob(cmd *cobra.Command, kind models.PipelineKind, args []string, opts jobOptions) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(config)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	session, err := pipeline.NewSessionFromConfig(config, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	o, err := session.Pipeline(kind)
	if err != nil {
		return err
	}

	if err := applySource(ctx, out, o, strings.Join(args, " "), opts.pick); err != nil {
		return err
	}
	if err := applyOptions(ctx, out, o, opts); err != nil {
		return err
	}

	if err := o.Submit(ctx); err != nil {
		return fmt.Errorf("failed to start %s job: %w", kind, err)
	}
	job := o.Snapshot().Job
	fmt.Fprintf(out, "✓ Started %s job: %s\n", kind, job.JobID)
	if job.Status == models.JobStatusQueued && job.QueuePosition > 0 {
		fmt.Fprintf(out, "  Queue position: %d\n", job.QueuePosition)
	}

	final, err := watchJob(ctx, o, out, opts.noProgress)
	if err != nil {
		return err
	}
	if final.Job.Status == models.JobStatusError {
		return lib.ErrJobFailed(final.Job.JobID, final.Job.Message)
	}

	printArtifacts(out, session.Links(), final)

	dest := opts.output
	if dest == "" && opts.fetch {
		dest = config.Output.Dir
	}
	if dest == "" {
		return nil
	}
	return fetchArtifacts(ctx, out, session, config, logger, dest, final.Artifacts, opts.noProgress)
}

// applySource sets the pipeline input from a URL, a local file or a search query
func applySource(ctx context.Context, out io.Writer, o *pipeline.Orchestrator, source string, pick int) error {
	if o.Kind() != models.PipelineDownload {
		if info, err := os.Stat(source); err == nil && !info.IsDir() {
			upload, err := services.ReadUpload(source)
			if err != nil {
				return err
			}
			if err := o.SetUpload(upload); err != nil {
				return err
			}
			fmt.Fprintf(out, "Uploading %s (%s)\n", upload.Filename, ui.FormatBytes(int64(len(upload.Data))))
			return nil
		}
	}

	o.SetInput(source)
	snap := o.Snapshot()

	switch snap.Mode {
	case models.InputModeURL:
		fmt.Fprintf(out, "Source: %s (%s)\n", source, snap.Platform)
		return nil
	case models.InputModeSearch:
		if snap.Search.Status == pipeline.SearchIdle {
			return fmt.Errorf("search query %q is too short", source)
		}
	default:
		return fmt.Errorf("cannot use %q as a source", source)
	}

	fmt.Fprintf(out, "Searching for %q...\n", source)
	snap, err := o.Store().WaitFor(ctx, func(s pipeline.Snapshot) bool {
		return s.Search.Query == strings.TrimSpace(source) &&
			(s.Search.Status == pipeline.SearchReady || s.Search.Status == pipeline.SearchFailed)
	})
	if err != nil {
		return err
	}
	if snap.Search.Status == pipeline.SearchFailed || len(snap.Search.Results) == 0 {
		return fmt.Errorf("no search results for %q", source)
	}
	if pick < 0 || pick >= len(snap.Search.Results) {
		return fmt.Errorf("--pick %d is out of range: %d results", pick, len(snap.Search.Results))
	}

	picked := snap.Search.Results[pick]
	if err := o.SelectResult(pick); err != nil {
		return err
	}
	fmt.Fprintf(out, "Using: %s\n  %s\n", picked.Title, picked.URL)
	return nil
}

// applyOptions applies the pipeline-specific selections
func applyOptions(ctx context.Context, out io.Writer, o *pipeline.Orchestrator, opts jobOptions) error {
	switch o.Kind() {
	case models.PipelineDownload:
		return applyDownloadOptions(ctx, out, o, opts)
	case models.PipelineStems:
		if err := o.SetStems(opts.stems); err != nil {
			return err
		}
	}
	return o.SetOutputFormat(opts.outputFormat)
}

func applyDownloadOptions(ctx context.Context, out io.Writer, o *pipeline.Orchestrator, opts jobOptions) error {
	source := strings.TrimSpace(o.Snapshot().Input)
	snap, err := o.Store().WaitFor(ctx, func(s pipeline.Snapshot) bool {
		return s.Catalog != nil && s.Catalog.Source == source && !s.Catalog.Loading
	})
	if err != nil {
		return err
	}
	if snap.Catalog.Err != "" {
		fmt.Fprintf(out, "⚠ Could not list formats (%s); the backend will pick the best one\n", snap.Catalog.Err)
	} else if md := snap.Catalog.Formats.Metadata; md.Title != "" {
		fmt.Fprintf(out, "Title: %s (%s)\n", md.Title, ui.FormatMediaDuration(md.Duration))
	}

	if opts.audio {
		if err := o.SetOutputKind(models.MediaKindAudio); err != nil {
			return err
		}
	}
	if opts.formatID != "" {
		if err := o.SelectFormat(opts.formatID); err != nil {
			return err
		}
	}

	cs := o.Snapshot().Catalog
	fmt.Fprintf(out, "Format: %s (%s)\n", cs.Selected, cs.OutputKind)
	return nil
}

// watchJob renders job progress until the job reaches a terminal state
func watchJob(ctx context.Context, o *pipeline.Orchestrator, out io.Writer, noProgress bool) (pipeline.Snapshot, error) {
	updates, stop := o.Store().Subscribe(32)
	defer stop()

	var bar *ui.JobProgressBar
	if !noProgress {
		bar = ui.NewJobProgressBar(o.Kind(), out)
	}

	var last pipeline.Snapshot
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return last, pipeline.ErrStoreClosed
			}
			last = snap
			if bar != nil {
				bar.Update(snap.Job)
			}
			if snap.Job.Status.IsTerminal() {
				if bar != nil {
					fmt.Fprintln(out)
				}
				return snap, nil
			}
		}
	}
}

func printArtifacts(out io.Writer, links *services.LinkBuilder, snap pipeline.Snapshot) {
	if r := snap.Job.Result; r != nil && r.Metadata != nil && r.Metadata.Title != "" {
		fmt.Fprintf(out, "✓ %s", r.Metadata.Title)
		if r.Metadata.Artist != "" {
			fmt.Fprintf(out, " - %s", r.Metadata.Artist)
		}
		fmt.Fprintln(out)
	}
	if len(snap.Artifacts) == 0 {
		fmt.Fprintln(out, "No files were produced")
		return
	}
	fmt.Fprintln(out, "Files:")
	for _, ref := range snap.Artifacts {
		fmt.Fprintf(out, "  %-14s %s\n", ref.Label, links.URL(ref))
	}
}

func fetchArtifacts(ctx context.Context, out io.Writer, session *pipeline.Session, config *models.ProjectConfig, logger *lib.Logger, dest string, refs []models.ArtifactRef, noProgress bool) error {
	sink, err := storage.NewForURI(ctx, dest)
	if err != nil {
		return err
	}

	var progress io.Writer
	if !noProgress {
		progress = out
	}
	fetcher := services.NewArtifactFetcher(session.HTTPClient(), session.Links(), sink, config.Retry, logger.Named("fetch"), progress)

	var failed []error
	for _, r := range fetcher.FetchAll(ctx, refs) {
		if r.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", r.Ref.Label, r.Err))
			continue
		}
		fmt.Fprintf(out, "✓ Saved %s (%s)\n", r.Location, ui.FormatBytes(r.Bytes))
	}
	return errors.Join(failed...)
}
