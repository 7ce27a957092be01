package gateways

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

const defaultArchiveMimeType = "application/zip"

// fsArchiveLoader loads an archive file from a file system into memory
type fsArchiveLoader struct {
	fs      afero.Fs
	path    string
	maxSize int64
}

// NewFSArchiveLoader creates a loader for the archive at path. Files above maxSize bytes are refused.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewFSArchiveLoader(fs afero.Fs, path string, maxSize int64) *fsArchiveLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxSize <= 0 {
		maxSize = entities.DefaultMaxEntrySize
	}
	return &fsArchiveLoader{fs: fs, path: path, maxSize: maxSize}
}

// Load reads the archive and returns its descriptor with the bytes as the container source
func (l *fsArchiveLoader) Load(ctx context.Context) (entities.ArchiveFile, any, error) {
	if err := ctx.Err(); err != nil {
		return entities.ArchiveFile{}, nil, err
	}

	info, err := l.fs.Stat(l.path)
	if err != nil {
		return entities.ArchiveFile{}, nil, entities.WrapScanError(entities.KindUnsupportedSource,
			"failed to stat archive "+l.path, err)
	}
	if info.IsDir() {
		return entities.ArchiveFile{}, nil, entities.NewScanError(entities.KindUnsupportedSource,
			"archive path is a directory", l.path)
	}
	if info.Size() > l.maxSize {
		return entities.ArchiveFile{}, nil, entities.NewScanError(entities.KindEntryTooLarge,
			fmt.Sprintf("archive exceeds the %d byte read limit", l.maxSize), l.path)
	}

	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return entities.ArchiveFile{}, nil, entities.WrapScanError(entities.KindUnsupportedSource,
			"failed to read archive "+l.path, err)
	}

	file := entities.ArchiveFile{
		Name:     filepath.Base(l.path),
		Path:     l.path,
		Size:     int64(len(data)),
		MimeType: MimeTypeFor(l.path),
		Modified: info.ModTime().UTC(),
	}
	return file, data, nil
}

// MimeTypeFor guesses the MIME type of an archive from its extension
func MimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zip" || ext == "" {
		return defaultArchiveMimeType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
