package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"eventlens-client/internal/upload"
	"eventlens-client/pkg/models"
)

type uploadFlags struct {
	collectionID string
	eventID      string
	recursive    bool
	batchSize    int
	retries      int
	quiet        bool
}

func (f *uploadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.collectionID, "collection", "", "Collection id (required)")
	cmd.Flags().StringVar(&f.eventID, "event", "", "Event id (required)")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "Include photos in subfolders")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Files per batch (default from EVENTLENS_BATCH_SIZE)")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Times to resend files that failed")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Hide the progress bar")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("event")
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags

	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload photos to an event in one of your collections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			if _, err := svc.sessions.Current(); err != nil {
				return errors.New("not signed in; run `eventlens login` first or use `eventlens quick-upload`")
			}

			dest := models.DestinationContext{
				CollectionID: flags.collectionID,
				EventID:      flags.eventID,
			}
			return runUpload(cmd, svc, dest, args, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func newQuickUploadCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags
	var linkID, pin string

	cmd := &cobra.Command{
		Use:   "quick-upload <path>...",
		Short: "Upload photos through a shared upload link, without signing in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			dest := models.DestinationContext{
				CollectionID: flags.collectionID,
				EventID:      flags.eventID,
				Public:       true,
				LinkID:       linkID,
				PIN:          pin,
			}
			return runUpload(cmd, svc, dest, args, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&linkID, "link", "", "Upload link id (required)")
	cmd.Flags().StringVar(&pin, "pin", "", "Upload link PIN, when the link has one")
	_ = cmd.MarkFlagRequired("link")
	return cmd
}

// runUpload resolves paths, runs the scheduler, and retries the failed
// subset up to flags.retries times
func runUpload(cmd *cobra.Command, svc *services, dest models.DestinationContext, paths []string, flags uploadFlags) error {
	if flags.batchSize < 0 || flags.batchSize > upload.MaxBatchSize {
		return fmt.Errorf("--batch-size %d: %w", flags.batchSize, upload.ErrInvalidBatchSize)
	}
	files, err := svc.storage.Resolve(paths, flags.recursive)
	if err != nil {
		return fmt.Errorf("%w: %v", upload.ErrInvalidPaths, err)
	}
	if len(files) == 0 {
		return upload.ErrNoFiles
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Uploading %d photos (%s)\n", len(files), humanize.Bytes(totalSize(files)))

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var result *upload.Result
	for attempt := 0; ; attempt++ {
		result, err = runOnce(runCtx, out, svc.scheduler, files, dest, flags)
		if err == nil || result.State != upload.StateFailed || attempt >= flags.retries {
			break
		}
		files = result.Retryable()
		fmt.Fprintf(out, "Retrying %d photos (attempt %d of %d)\n", len(files), attempt+1, flags.retries)
	}

	fmt.Fprintln(out, renderResult(result))
	fmt.Fprintln(out, result.Message)
	if err != nil {
		return fmt.Errorf("upload %s: %w", result.State, err)
	}
	return nil
}

func runOnce(ctx context.Context, out io.Writer, scheduler *upload.Scheduler, files []models.File, dest models.DestinationContext, flags uploadFlags) (*upload.Result, error) {
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetVisibility(!flags.quiet),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	return scheduler.Run(ctx, files, dest,
		upload.WithBatchSize(flags.batchSize),
		upload.WithBatchStart(func(batch, total int) {
			bar.Describe(fmt.Sprintf("batch %d/%d", batch, total))
		}),
		upload.WithProgress(func(p upload.Progress) {
			_ = bar.Set(p.CompletedFiles)
		}))
}

func renderResult(result *upload.Result) string {
	rows := make([][]string, 0, len(result.Files))
	for _, fr := range result.Files {
		rows = append(rows, []string{
			strconv.Itoa(fr.Index + 1),
			fr.Name,
			string(fr.Status),
			fr.Reason,
		})
	}
	columns := append([]column{{header: "#", numeric: true}}, textColumns("File", "Status", "Reason")...)
	table := renderTable(columns, rows)

	summary := fmt.Sprintf("%d uploaded, %d skipped, %d failed of %d (%d%%)",
		result.UploadedFiles, result.SkippedFiles, result.FailedFiles, result.TotalFiles, result.Progress)
	return table + "\n" + summary
}

func totalSize(files []models.File) uint64 {
	var total uint64
	for _, f := range files {
		if f.Size > 0 {
			total += uint64(f.Size)
		}
	}
	return total
}
