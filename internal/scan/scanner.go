// Package scan finds ingestible files on disk for batch ingestion.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/extract"
)

// ErrUnsupportedFile is returned when a single file path has no supported
// media type.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ScannedFile represents an ingestible file found during scanning.
type ScannedFile struct {
	RelPath     string // Relative path from the scan root, slash-separated
	AbsPath     string
	ContentType string // Media type inferred from the extension
	Size        int64
}

// Scan walks root and returns every file with a supported extension, in
// lexical order. Hidden directories are skipped. A root that is a regular
// file is returned on its own.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access path %s: %w", root, err)
	}

	if !info.IsDir() {
		contentType := extract.MediaTypeForFilename(root)
		if contentType == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, root)
		}
		return []ScannedFile{{
			RelPath:     filepath.Base(root),
			AbsPath:     root,
			ContentType: contentType,
			Size:        info.Size(),
		}}, nil
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		contentType := extract.MediaTypeForFilename(path)
		if contentType == "" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		files = append(files, ScannedFile{
			RelPath:     filepath.ToSlash(relPath),
			AbsPath:     path,
			ContentType: contentType,
			Size:        fi.Size(),
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}
