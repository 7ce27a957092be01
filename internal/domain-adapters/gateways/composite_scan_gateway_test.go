package gateways

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/testfixtures"
)

// Test creating composite gateway with custom dependencies
func TestNewCompositeScanGatewayWithDeps(t *testing.T) {
	archive := NewZipArchiveGateway(0)
	decoder := NewPlistDecoder()
	analyzer := NewMachOAnalyzer()
	checksum := NewChecksumVerifier(afero.NewMemMapFs())
	checker := NewNoOpVersionChecker()

	gateway := NewCompositeScanGatewayWithDeps(archive, decoder, analyzer, checksum, checker)

	composite, ok := gateway.(*compositeScanGateway)
	require.True(t, ok, "gateway is not a *compositeScanGateway")
	assert.Same(t, archive, composite.archiveGateway)
	assert.Same(t, decoder, composite.plistDecoder)
	assert.Same(t, analyzer, composite.machoAnalyzer)
	assert.Same(t, checksum, composite.checksumVerifier)
	assert.Same(t, checker, composite.versionChecker)
}

func TestCompositeScanGateway_Delegates(t *testing.T) {
	gateway := NewCompositeScanGateway(entities.DefaultScanConfig())
	ctx := context.Background()

	archive := testfixtures.App("Demo", "2.0", testfixtures.Universal())
	reader, err := gateway.OpenArchive(ctx, archive)
	require.NoError(t, err)
	assert.Len(t, reader.Entries(), 7)

	list, err := gateway.DecodePlist(testfixtures.Plist(testfixtures.InfoPlist("Demo", "2.0"), plist.XMLFormat))
	require.NoError(t, err)
	version, _ := list.String("CFBundleShortVersionString")
	assert.Equal(t, "2.0", version)

	meta, err := gateway.AnalyzeMachO(testfixtures.Universal())
	require.NoError(t, err)
	assert.Len(t, meta.Architectures, 2)

	assert.Len(t, gateway.ChecksumBytes(archive), 64)
	assert.NoError(t, gateway.CheckNativeVersions(ctx, &entities.ScanReport{}))
}

func TestCompositeScanGateway_OnlyExposesScanChecksum(t *testing.T) {
	gateway := NewCompositeScanGateway(entities.DefaultScanConfig())

	_, verifies := gateway.(interface {
		VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
	})
	assert.False(t, verifies, "file checksum verification belongs to the checksum verifier, not the scan gateway")

	_, calculates := gateway.(interface{ ChecksumBytes(data []byte) string })
	assert.True(t, calculates)
}

func TestNoOpVersionChecker_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewNoOpVersionChecker().CheckNativeVersions(ctx, nil), context.Canceled)
}
