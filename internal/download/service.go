package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"eventlens-client/internal/normalize"
)

var ErrNoSource = errors.New("photo has no download url")

type Service struct {
	gallery    Gallery
	httpClient *http.Client
	logger     *zap.Logger
}

func NewService(gallery Gallery, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gallery:    gallery,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SelectPhotos lists an event's photos, keeping only ids when ids is non-empty
func (s *Service) SelectPhotos(ctx context.Context, collectionID, eventID string, ids []string) ([]normalize.Record, error) {
	photos, err := s.gallery.ListPhotos(ctx, collectionID, eventID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return photos, nil
	}

	selected := make([]normalize.Record, 0, len(ids))
	for _, photo := range photos {
		if slices.Contains(ids, photo.FirstString("id", "photo_id", "photoid")) {
			selected = append(selected, photo)
		}
	}
	return selected, nil
}

// StreamZipArchive streams the photos into a ZIP archive directly to the writer.
// Each photo is spooled to a temporary file first, so a source that fails or
// drops mid-body is left out instead of producing a truncated entry. It
// returns the number of entries written.
func (s *Service) StreamZipArchive(ctx context.Context, writer io.Writer, photos []normalize.Record) (int, error) {
	zipWriter := zip.NewWriter(writer)

	names := make(map[string]int)
	written := 0
	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			zipWriter.Close()
			return written, err
		}

		name := uniqueName(names, entryName(photo, i))
		if err := s.addFileToZip(ctx, zipWriter, photo, name); err != nil {
			s.logger.Warn("photo left out of archive", zap.String("name", name), zap.Error(err))
			continue
		}
		written++
	}

	if err := zipWriter.Close(); err != nil {
		return written, fmt.Errorf("failed to finish ZIP archive: %w", err)
	}
	return written, nil
}

// addFileToZip downloads a photo and adds it to the ZIP archive
func (s *Service) addFileToZip(ctx context.Context, zipWriter *zip.Writer, photo normalize.Record, name string) error {
	source := photo.FirstString("url", "download_url", "downloadurl")
	if source == "" {
		return ErrNoSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get file stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to get file stream: status %d", resp.StatusCode)
	}

	spool, err := os.CreateTemp("", "eventlens-zip-*")
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read file stream: %w", err)
	}
	if resp.ContentLength >= 0 && size != resp.ContentLength {
		return fmt.Errorf("failed to read file stream: got %d of %d bytes", size, resp.ContentLength)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind spool file: %w", err)
	}

	// The entry is created only once the whole body is on disk
	zipFile, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	if _, err := io.Copy(zipFile, spool); err != nil {
		return fmt.Errorf("failed to write file to ZIP: %w", err)
	}

	return nil
}

func entryName(photo normalize.Record, index int) string {
	name := photo.FirstString(normalize.KeyName, "file_name", "filename", "key")
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return fmt.Sprintf("photo-%03d.jpg", index+1)
	}
	return name
}

func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), seen[name], ext)
}
