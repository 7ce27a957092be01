// Package gateways provides adapter implementations for archives, property lists, Mach-O files and signatures.
package gateways

import (
	"context"

	"github.com/spf13/afero"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
)

// compositeScanGateway implements the ScanGateway interface by composing
// all individual scan gateways together
type compositeScanGateway struct {
	archiveGateway   gateways.ArchiveOpener
	plistDecoder     gateways.PlistDecoder
	machoAnalyzer    gateways.MachOAnalyzer
	checksumVerifier gateways.ChecksumCalculator
	versionChecker   gateways.VersionChecker
}

// NewCompositeScanGateway creates a composite scan gateway with the default adapters
func NewCompositeScanGateway(cfg entities.ScanConfig) gateways.ScanGateway {
	return &compositeScanGateway{
		archiveGateway:   NewZipArchiveGateway(cfg.MaxEntrySize),
		plistDecoder:     NewPlistDecoder(),
		machoAnalyzer:    NewMachOAnalyzer(),
		checksumVerifier: NewChecksumVerifier(afero.NewOsFs()),
		versionChecker:   NewNoOpVersionChecker(),
	}
}

// NewCompositeScanGatewayWithDeps creates a composite gateway with custom dependencies
// This is useful for testing or when you want to inject specific implementations
func NewCompositeScanGatewayWithDeps(
	archive gateways.ArchiveOpener,
	plist gateways.PlistDecoder,
	analyzer gateways.MachOAnalyzer,
	checksum gateways.ChecksumCalculator,
	checker gateways.VersionChecker,
) gateways.ScanGateway {
	return &compositeScanGateway{
		archiveGateway:   archive,
		plistDecoder:     plist,
		machoAnalyzer:    analyzer,
		checksumVerifier: checksum,
		versionChecker:   checker,
	}
}

// OpenArchive opens a zip-style container
func (c *compositeScanGateway) OpenArchive(ctx context.Context, source any) (gateways.ArchiveReader, error) {
	return c.archiveGateway.OpenArchive(ctx, source)
}

// DecodePlist decodes a property list
func (c *compositeScanGateway) DecodePlist(data []byte) (*entities.PropertyList, error) {
	return c.plistDecoder.DecodePlist(data)
}

// AnalyzeMachO parses a Mach-O file
func (c *compositeScanGateway) AnalyzeMachO(data []byte) (*entities.MachOMeta, error) {
	return c.machoAnalyzer.AnalyzeMachO(data)
}

// ChecksumBytes computes the SHA-256 of data
func (c *compositeScanGateway) ChecksumBytes(data []byte) string {
	return c.checksumVerifier.ChecksumBytes(data)
}

// CheckNativeVersions runs the checking phase
func (c *compositeScanGateway) CheckNativeVersions(ctx context.Context, report *entities.ScanReport) error {
	return c.versionChecker.CheckNativeVersions(ctx, report)
}
