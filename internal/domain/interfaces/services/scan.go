// Package services defines interfaces for domain service contracts.
package services

import (
	"github.com/ochairo/nativescan/internal/domain/entities"
)

// ScanService holds the pure business rules of the scan pipeline
type ScanService interface {
	// Classification
	ClassifyEntry(entry entities.ArchiveEntry) entities.EntryRole

	// Bundle derivation
	DeclaredExecutablePath(plist *entities.PropertyList) (string, error)
	ResolveExecutable(candidates []entities.ArchiveEntry, declared string) (entities.ArchiveEntry, error)
	SupportsNative(meta *entities.MachOMeta) bool
	SupportedArchitectures(meta *entities.MachOMeta) []entities.ArchitectureDescriptor

	// State machine
	NewState(scanID string) entities.ScanState
	Transition(state entities.ScanState, event entities.ScanEvent) (entities.ScanState, []entities.ScanMessage, error)
}
