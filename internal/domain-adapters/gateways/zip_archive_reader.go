package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// zipArchiveGateway opens zip-style containers from in-memory or random-access sources
type zipArchiveGateway struct {
	maxEntrySize int64
}

// NewZipArchiveGateway creates an archive opener that refuses to read entries above maxEntrySize bytes
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewZipArchiveGateway(maxEntrySize int64) *zipArchiveGateway {
	if maxEntrySize <= 0 {
		maxEntrySize = entities.DefaultMaxEntrySize
	}
	return &zipArchiveGateway{maxEntrySize: maxEntrySize}
}

type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

type statReaderAt interface {
	io.ReaderAt
	Stat() (fs.FileInfo, error)
}

// OpenArchive opens source as a zip container. Recognized sources are []byte, an io.ReaderAt with
// Size() (bytes.Reader, io.SectionReader) and an io.ReaderAt with Stat() (os.File, afero.File).
func (g *zipArchiveGateway) OpenArchive(ctx context.Context, source any) (gateways.ArchiveReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readerAt, size, err := readerAtFor(source)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(readerAt, size)
	if err != nil {
		return nil, entities.WrapScanError(entities.KindArchiveFormat, "failed to open zip archive", err)
	}

	reader := &zipArchiveReader{
		files:        make(map[string]*zip.File, len(zr.File)),
		entries:      make([]entities.ArchiveEntry, 0, len(zr.File)),
		maxEntrySize: g.maxEntrySize,
	}
	for _, f := range zr.File {
		entry := entities.ArchiveEntry{
			Path:             f.Name,
			IsDirectory:      f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
			CompressedSize:   int64(f.CompressedSize64),   //nolint:gosec // sizes above 2^63 are not representable anyway
			UncompressedSize: int64(f.UncompressedSize64), //nolint:gosec // see above
			Modified:         f.Modified,
		}
		reader.entries = append(reader.entries, entry)
		if _, seen := reader.files[f.Name]; !seen {
			reader.files[f.Name] = f
		}
	}

	return reader, nil
}

func readerAtFor(source any) (io.ReaderAt, int64, error) {
	switch src := source.(type) {
	case []byte:
		return bytes.NewReader(src), int64(len(src)), nil
	case sizedReaderAt:
		return src, src.Size(), nil
	case statReaderAt:
		info, err := src.Stat()
		if err != nil {
			return nil, 0, entities.WrapScanError(entities.KindArchiveFormat, "failed to stat archive source", err)
		}
		if info.IsDir() {
			return nil, 0, entities.NewScanError(entities.KindUnsupportedSource, "archive source is a directory: "+info.Name())
		}
		return src, info.Size(), nil
	case nil:
		return nil, 0, entities.NewScanError(entities.KindUnsupportedSource, "no archive source given")
	default:
		return nil, 0, entities.NewScanError(entities.KindUnsupportedSource,
			fmt.Sprintf("archive source of type %T is not a known format", source))
	}
}

// zipArchiveReader implements ArchiveReader over an opened zip directory
type zipArchiveReader struct {
	entries      []entities.ArchiveEntry
	files        map[string]*zip.File
	maxEntrySize int64
}

// Entries returns the entries in central-directory order
func (r *zipArchiveReader) Entries() []entities.ArchiveEntry {
	out := make([]entities.ArchiveEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ReadBytes decompresses an entry into memory
func (r *zipArchiveReader) ReadBytes(ctx context.Context, entry entities.ArchiveEntry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := r.files[entry.Path]
	if !ok {
		return nil, entities.NewScanError(entities.KindArchiveFormat, "entry not found in archive", entry.Path)
	}
	if f.FileInfo().IsDir() {
		return nil, entities.NewScanError(entities.KindArchiveFormat, "entry is a directory", entry.Path)
	}
	if f.UncompressedSize64 > uint64(r.maxEntrySize) { //nolint:gosec // maxEntrySize is positive
		return nil, tooLarge(entry.Path, r.maxEntrySize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, entities.WrapScanError(entities.KindArchiveFormat, "failed to open entry "+entry.Path, err)
	}
	//nolint:errcheck // Defer close on read-only entry
	defer rc.Close()

	// Declared sizes can lie; never read past the limit
	data, err := io.ReadAll(io.LimitReader(rc, r.maxEntrySize+1))
	if err != nil {
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, entities.WrapScanError(entities.KindArchiveFormat, "corrupt entry "+entry.Path, err)
		}
		return nil, entities.WrapScanError(entities.KindArchiveFormat, "failed to read entry "+entry.Path, err)
	}
	if int64(len(data)) > r.maxEntrySize {
		return nil, tooLarge(entry.Path, r.maxEntrySize)
	}

	return data, nil
}

// ReadText reads an entry as UTF-8 text, dropping a byte order mark and replacing invalid sequences
func (r *zipArchiveReader) ReadText(ctx context.Context, entry entities.ArchiveEntry) (string, error) {
	data, err := r.ReadBytes(ctx, entry)
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	return string(data), nil
}

func tooLarge(path string, limit int64) error {
	return entities.NewScanError(entities.KindEntryTooLarge,
		fmt.Sprintf("entry exceeds the %d byte read limit", limit), path)
}
