package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"eventlens-client/pkg/models"
)

var (
	ErrNotFolder = errors.New("path is not a folder")
	ErrNotImage  = errors.New("file is not a supported image")
)

// Service reads photos from the local disk
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Stat describes a single path
func (s *Service) Stat(path string) (*Item, error) {
	clean, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(clean)
	if err != nil {
		return nil, err
	}
	return newItem(clean, info)
}

// ListFolderContents lists the visible files and folders directly inside folder
func (s *Service) ListFolderContents(folder *Item) ([]*Item, error) {
	if !folder.IsFolder {
		return nil, fmt.Errorf("%s: %w", folder.Path, ErrNotFolder)
	}

	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder contents: %w", err)
	}

	items := make([]*Item, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		item, err := newItem(filepath.Join(folder.Path, entry.Name()), info)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// ListImages lists all image files in the specified folder, in name order
func (s *Service) ListImages(root string, recursive bool) ([]*Item, error) {
	folder, err := s.Stat(root)
	if err != nil {
		return nil, err
	}
	return s.listImages(folder, recursive)
}

func (s *Service) listImages(folder *Item, recursive bool) ([]*Item, error) {
	allItems, err := s.ListFolderContents(folder)
	if err != nil {
		return nil, err
	}

	images := make([]*Item, 0)
	for _, currentItem := range allItems {
		if currentItem.IsFolder && recursive {
			subImages, err := s.listImages(currentItem, recursive)
			if err != nil {
				// Unreadable subfolders are skipped
				continue
			}
			images = append(images, subImages...)
		} else if !currentItem.IsFolder && IsImageMimeType(currentItem.MimeType) {
			images = append(images, currentItem)
		}
	}

	return images, nil
}

// Resolve expands paths into uploadable files. Folders contribute their
// images; a file named explicitly must itself be an image. Duplicates are
// dropped, first occurrence wins.
func (s *Service) Resolve(paths []string, recursive bool) ([]models.File, error) {
	seen := make(map[string]bool)
	var files []models.File

	add := func(item *Item) {
		if seen[item.Path] {
			return
		}
		seen[item.Path] = true
		files = append(files, itemFile(item))
	}

	for _, path := range paths {
		item, err := s.Stat(path)
		if err != nil {
			return nil, err
		}

		if !item.IsFolder {
			if !IsImageMimeType(item.MimeType) {
				return nil, fmt.Errorf("%s: %w", item.Path, ErrNotImage)
			}
			add(item)
			continue
		}

		images, err := s.listImages(item, recursive)
		if err != nil {
			return nil, err
		}
		for _, image := range images {
			add(image)
		}
	}

	return files, nil
}

// FileFromPath builds an uploadable file whose content is read lazily
func (s *Service) FileFromPath(path string) (models.File, error) {
	item, err := s.Stat(path)
	if err != nil {
		return models.File{}, err
	}
	if item.IsFolder {
		return models.File{}, fmt.Errorf("%s: %w", item.Path, ErrNotImage)
	}
	return itemFile(item), nil
}

// OpenFile retrieves a file stream for the item
func (s *Service) OpenFile(item *Item) (io.ReadCloser, error) {
	return os.Open(item.Path)
}

func itemFile(item *Item) models.File {
	path := item.Path
	return models.File{
		Name: item.Name,
		Type: item.MimeType,
		Size: item.Size,
		Path: path,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func newItem(path string, info os.FileInfo) (*Item, error) {
	item := &Item{
		Name:       info.Name(),
		Path:       path,
		Size:       info.Size(),
		IsFolder:   info.IsDir(),
		ModifiedAt: info.ModTime(),
	}
	if item.IsFolder || !info.Mode().IsRegular() {
		item.Size = 0
		return item, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	item.MimeType = baseMimeType(mtype.String())
	return item, nil
}

func baseMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// IsImageMimeType checks if a mime type is an image the backend accepts
func IsImageMimeType(mimeType string) bool {
	imageMimeTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/heic",
		"image/heif",
		"image/tiff",
	}
	return slices.Contains(imageMimeTypes, mimeType)
}
