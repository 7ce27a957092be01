// Package gateways defines interfaces for the adapters the scan pipeline depends on.
package gateways

import (
	"context"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

// ArchiveOpener opens a byte source as a zip-style container.
// The source must be a recognized container representation; anything else fails
// with entities.ErrUnsupportedSource.
type ArchiveOpener interface {
	OpenArchive(ctx context.Context, source any) (ArchiveReader, error)
}

// ArchiveReader enumerates the entries of an opened container and reads them
type ArchiveReader interface {
	// Entries lists every entry, in a stable order for the lifetime of the reader
	Entries() []entities.ArchiveEntry
	EntryByteReader
	EntryTextReader
}

// EntryByteReader reads an entry as raw bytes
type EntryByteReader interface {
	ReadBytes(ctx context.Context, entry entities.ArchiveEntry) ([]byte, error)
}

// EntryTextReader reads an entry as decoded text
type EntryTextReader interface {
	ReadText(ctx context.Context, entry entities.ArchiveEntry) (string, error)
}

// ArchiveLoader acquires the archive to scan: its descriptor and a byte source for ArchiveOpener
type ArchiveLoader interface {
	Load(ctx context.Context) (entities.ArchiveFile, any, error)
}

// PlistDecoder decodes binary or XML property lists
type PlistDecoder interface {
	DecodePlist(data []byte) (*entities.PropertyList, error)
}

// MachOAnalyzer parses thin or fat Mach-O files into per-architecture descriptors
type MachOAnalyzer interface {
	AnalyzeMachO(data []byte) (*entities.MachOMeta, error)
}

// ChecksumCalculator computes the digest recorded in the scan report
type ChecksumCalculator interface {
	ChecksumBytes(data []byte) string
}

// VersionChecker is the collaborator for the checking phase (online lookup of native versions)
type VersionChecker interface {
	CheckNativeVersions(ctx context.Context, report *entities.ScanReport) error
}

// SignatureVerifier verifies detached OpenPGP signatures over archive bytes
type SignatureVerifier interface {
	ImportKeyFromFile(keyPath string) error
	VerifyDetachedSignature(ctx context.Context, data, signature []byte) error
}

// ScanGateway composes every adapter the scan orchestrator needs
type ScanGateway interface {
	ArchiveOpener
	PlistDecoder
	MachOAnalyzer
	ChecksumCalculator
	VersionChecker
}
