package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"eventlens-client/internal/download"
	"eventlens-client/internal/normalize"
)

func newGalleryCommands(ctx *commandContext) []*cobra.Command {
	collections := &cobra.Command{
		Use:   "collections",
		Short: "List your collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			records, err := svc.backend.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			printRecords(cmd, records, "id", normalize.KeyName, "created_at")
			return nil
		},
	}

	events := &cobra.Command{
		Use:   "events <collection>",
		Short: "List the events of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			records, err := svc.backend.ListEvents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecords(cmd, records, "id", normalize.KeyName, "date")
			return nil
		},
	}

	photos := &cobra.Command{
		Use:   "photos <collection> <event>",
		Short: "List the photos of an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			records, err := svc.backend.ListPhotos(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printRecords(cmd, records, "id", normalize.KeyName, normalize.KeyTimestamp)
			return nil
		},
	}

	faces := &cobra.Command{
		Use:   "faces <collection> <event>",
		Short: "List the faces detected in an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			records, err := svc.backend.ListFaces(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printRecords(cmd, records, normalize.KeyFaceID, normalize.KeyName, normalize.KeyMatchCount)
			return nil
		},
	}

	leads := &cobra.Command{
		Use:   "leads <collection>",
		Short: "List guests who left their contact details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			records, err := svc.backend.ListLeads(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecords(cmd, records, normalize.KeyName, normalize.KeyMobile, "email", normalize.KeyTimestamp)
			return nil
		},
	}

	return []*cobra.Command{collections, events, photos, faces, leads}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <collection> <event> [photo-id]...",
		Short: "Download an event's photos as a ZIP archive",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			downloads := download.NewService(svc.backend, cfg.TransferTimeout, svc.logger.Named("download"))
			photos, err := downloads.SelectPhotos(cmd.Context(), args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			if len(photos) == 0 {
				return fmt.Errorf("no photos to download")
			}

			if outPath == "" {
				outPath = fmt.Sprintf("photos-%s.zip", time.Now().Format("20060102-150405"))
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create archive: %w", err)
			}

			written, err := downloads.StreamZipArchive(cmd.Context(), f, photos)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("write archive: %w", err)
			}

			size := "unknown size"
			if info, statErr := os.Stat(outPath); statErr == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d of %d photos to %s (%s)\n", written, len(photos), displayPath(outPath), size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Archive path (default photos-<timestamp>.zip)")
	return cmd
}

// displayPath returns p as an absolute path, or p itself when the working
// directory cannot be read
func displayPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// printRecords renders normalized records as a table of the given columns
func printRecords(cmd *cobra.Command, records []normalize.Record, columns ...string) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "Nothing found")
		return
	}

	cols := recordColumns(records, columns...)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range cols {
			if col.numeric && rec[col.header] != nil {
				row[i] = strconv.FormatFloat(rec.Number(col.header), 'f', -1, 64)
				continue
			}
			row[i] = rec.String(col.header)
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(out, renderTable(cols, rows))
	fmt.Fprintf(out, "%s records\n", humanize.Comma(int64(len(records))))
}
