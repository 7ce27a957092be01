package orchestrators

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapters "github.com/ochairo/nativescan/internal/domain-adapters/gateways"
	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
	"github.com/ochairo/nativescan/internal/domain/services"
	"github.com/ochairo/nativescan/internal/testfixtures"
)

func TestBatchScanner_ScanAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string][]byte{
		"/apps/Native.zip":    testfixtures.App("Native", "3.1", testfixtures.Arm64()),
		"/apps/Intel.zip":     testfixtures.App("Intel", "1.0", testfixtures.Amd64()),
		"/apps/Universal.zip": testfixtures.App("Universal", "2.4", testfixtures.Universal()),
		"/apps/Broken.zip":    []byte("not an archive"),
	}
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fs, path, data, 0600))
	}

	scanner := NewBatchScanner(
		newGateway(nil),
		services.NewScanService(entities.DefaultScanConfig()),
		&interfaces.NoOpLogger{},
		func(path string) gateways.ArchiveLoader { return adapters.NewFSArchiveLoader(fs, path, 0) },
		2,
	)

	paths := []string{"/apps/Native.zip", "/apps/Intel.zip", "/apps/Broken.zip", "/apps/Universal.zip", "/apps/Missing.zip"}

	var mu sync.Mutex
	counts := make(map[string]int)
	results := scanner.ScanAll(context.Background(), paths, func(path string, _ entities.ScanMessage) {
		mu.Lock()
		counts[path]++
		mu.Unlock()
	})

	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "results keep input order")
		assert.NoError(t, r.Err)
		assert.True(t, r.Final.Final)
	}

	report, ok := results[0].Report()
	require.True(t, ok)
	assert.Equal(t, entities.ResultNative, report.Result)
	assert.Equal(t, "3.1", report.AppVersion)
	assert.Equal(t, "Native.zip", report.Filename)

	report, ok = results[1].Report()
	require.True(t, ok)
	assert.Equal(t, entities.ResultNonNative, report.Result)

	assert.True(t, results[2].Failed())
	assert.ErrorIs(t, results[2].Final.Error, entities.ErrArchiveFormat)

	report, ok = results[3].Report()
	require.True(t, ok)
	assert.Len(t, report.SupportedArchitectures, 2)

	assert.True(t, results[4].Failed())
	assert.ErrorIs(t, results[4].Final.Error, entities.ErrUnsupportedSource)

	assert.Equal(t, 9, counts["/apps/Native.zip"])
	assert.Equal(t, 2, counts["/apps/Missing.zip"])
}

func TestBatchScanner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewBatchScanner(newGateway(nil), services.NewScanService(entities.DefaultScanConfig()), nil,
		func(path string) gateways.ArchiveLoader { return failingLoader{} }, 0)

	results := scanner.ScanAll(ctx, []string{"a.zip", "b.zip"}, nil)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.True(t, r.Failed())
		_, ok := r.Report()
		assert.False(t, ok)
	}
}
