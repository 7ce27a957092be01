package gateways

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/testfixtures"
)

func TestHTTPArchiveLoader_Load(t *testing.T) {
	archive := testfixtures.App("Demo", "1.0", testfixtures.Arm64())

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/releases/Demo.zip":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Last-Modified", "Fri, 01 Mar 2024 10:00:00 GMT")
			_, _ = w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewHTTPArchiveLoader(server.Client(), server.URL+"/releases/Demo.zip", 0)
	file, source, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, downloadUserAgent, userAgent)
	assert.Equal(t, "Demo.zip", file.Name)
	assert.Equal(t, server.URL+"/releases/Demo.zip", file.Path)
	assert.Equal(t, int64(len(archive)), file.Size)
	assert.Equal(t, "application/zip", file.MimeType)
	assert.Equal(t, 2024, file.Modified.Year())
	assert.Equal(t, archive, source)
}

func TestHTTPArchiveLoader_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.zip" {
			_, _ = w.Write(make([]byte, 128))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	tests := []struct {
		name    string
		url     string
		maxSize int64
		want    error
	}{
		{"not found", server.URL + "/missing.zip", 0, entities.ErrUnsupportedSource},
		{"too large", server.URL + "/big.zip", 64, entities.ErrEntryTooLarge},
		{"not http", "ftp://example.com/Demo.zip", 0, entities.ErrUnsupportedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewHTTPArchiveLoader(server.Client(), tt.url, tt.maxSize).Load(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestHTTPArchiveLoader_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("PK"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewHTTPArchiveLoader(server.Client(), server.URL+"/Demo.zip", 0).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadMimeType(t *testing.T) {
	assert.Equal(t, "application/x-zip-compressed", downloadMimeType("application/x-zip-compressed; charset=binary", "/a.zip"))
	assert.Equal(t, "application/zip", downloadMimeType("", "/a.zip"))
	assert.Equal(t, "application/zip", downloadMimeType("application/octet-stream", "/download"))
}

func TestIsRemoteArchive(t *testing.T) {
	assert.True(t, IsRemoteArchive("https://example.com/Demo.zip"))
	assert.True(t, IsRemoteArchive("HTTP://example.com/Demo.zip"))
	assert.False(t, IsRemoteArchive("/tmp/Demo.zip"))
	assert.False(t, IsRemoteArchive("Demo.zip"))
}
