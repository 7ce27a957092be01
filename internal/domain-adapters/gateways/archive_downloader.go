package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

const downloadUserAgent = "nativescan/1.0"

// httpArchiveLoader downloads an archive into memory
type httpArchiveLoader struct {
	httpClient *http.Client
	url        string
	maxSize    int64
}

// NewHTTPArchiveLoader creates a loader for the archive at rawURL. Bodies above maxSize bytes are refused.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewHTTPArchiveLoader(client *http.Client, rawURL string, maxSize int64) *httpArchiveLoader {
	if client == nil {
		client = &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for large downloads
		}
	}
	if maxSize <= 0 {
		maxSize = entities.DefaultMaxEntrySize
	}
	return &httpArchiveLoader{httpClient: client, url: rawURL, maxSize: maxSize}
}

// IsRemoteArchive reports whether ref names an http(s) URL rather than a local path
func IsRemoteArchive(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load downloads the archive and returns its descriptor with the bytes as the container source
func (l *httpArchiveLoader) Load(ctx context.Context) (entities.ArchiveFile, any, error) {
	u, err := url.Parse(l.url)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return entities.ArchiveFile{}, nil, entities.NewScanError(entities.KindUnsupportedSource,
			"not an http(s) archive URL", l.url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return entities.ArchiveFile{}, nil, entities.WrapScanError(entities.KindUnsupportedSource,
			"failed to create request", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.ArchiveFile{}, nil, ctxErr
		}
		return entities.ArchiveFile{}, nil, entities.WrapScanError(entities.KindUnsupportedSource,
			"HTTP request failed", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.ArchiveFile{}, nil, entities.NewScanError(entities.KindUnsupportedSource,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status), l.url)
	}
	if resp.ContentLength > l.maxSize {
		return entities.ArchiveFile{}, nil, tooLargeDownload(l.url, l.maxSize)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxSize+1))
	if err != nil {
		return entities.ArchiveFile{}, nil, entities.WrapScanError(entities.KindUnsupportedSource,
			"failed to read response body", err)
	}
	if int64(len(data)) > l.maxSize {
		return entities.ArchiveFile{}, nil, tooLargeDownload(l.url, l.maxSize)
	}

	file := entities.ArchiveFile{
		Name:     downloadName(u),
		Path:     l.url,
		Size:     int64(len(data)),
		MimeType: downloadMimeType(resp.Header.Get("Content-Type"), u.Path),
	}
	if modified, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		file.Modified = modified.UTC()
	}

	return file, data, nil
}

func tooLargeDownload(rawURL string, limit int64) error {
	return entities.NewScanError(entities.KindEntryTooLarge,
		fmt.Sprintf("download exceeds the %d byte read limit", limit), rawURL)
}

// downloadName takes the file name from the last URL path segment
func downloadName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return u.Host
	}
	return name
}

// downloadMimeType prefers a specific Content-Type over guessing from the URL path.
// Servers commonly label archives application/octet-stream.
func downloadMimeType(contentType, urlPath string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		return MimeTypeFor(urlPath)
	}
	return contentType
}
