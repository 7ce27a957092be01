// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces/services"
)

// Progress messages, in emission order
const (
	MsgLoading          = "🚛 Loading file..."
	MsgExtracting       = "📚 Extracting from archive..."
	MsgEntriesRead      = "📖 Reading file complete. Entries found"
	MsgStartingScan     = "🎬 Starting scan"
	MsgFoundInfoPlist   = "ℹ️ Found Info.plist"
	MsgFoundExecutable  = "🥊 Found a Mach-O executable"
	MsgParsingPrefix    = "🔬 Parsing "
	MsgCheckingVersions = "🔎 Checking online for native versions..."
	MsgComplete         = "🏁 Scan complete!"
	MsgErrorPrefix      = "🚫 Error: "
)

// scanService implements ScanService with pure business logic; it performs no I/O
type scanService struct {
	cfg entities.ScanConfig
}

// NewScanService creates a scan service for the given configuration
func NewScanService(cfg entities.ScanConfig) services.ScanService {
	return &scanService{cfg: cfg}
}

func (s *scanService) ClassifyEntry(entry entities.ArchiveEntry) entities.EntryRole {
	return ClassifyEntry(entry)
}

func (s *scanService) DeclaredExecutablePath(plist *entities.PropertyList) (string, error) {
	return DeclaredExecutablePath(plist)
}

func (s *scanService) ResolveExecutable(candidates []entities.ArchiveEntry, declared string) (entities.ArchiveEntry, error) {
	return ResolveExecutable(candidates, declared)
}

func (s *scanService) SupportsNative(meta *entities.MachOMeta) bool {
	return SupportsNative(meta, s.cfg.TargetFamily)
}

func (s *scanService) SupportedArchitectures(meta *entities.MachOMeta) []entities.ArchitectureDescriptor {
	return SupportedArchitectures(meta)
}

// NewState returns the idle state of a new scan
func (s *scanService) NewState(scanID string) entities.ScanState {
	return entities.ScanState{ScanID: scanID, Status: entities.StatusIdle}
}

// Transition applies one event to a state and returns the next state with the messages it emits.
// The input state is never modified. An error means the event was rejected; the caller is expected
// to feed a Failed event carrying it.
func (s *scanService) Transition(state entities.ScanState, event entities.ScanEvent) (entities.ScanState, []entities.ScanMessage, error) {
	if state.Terminal() {
		return state, nil, entities.NewScanError(entities.KindInvalidTransition,
			fmt.Sprintf("scan already finished, cannot apply %T", event))
	}

	t := &transition{next: state}

	switch e := event.(type) {
	case entities.LoadStarted:
		if err := t.advance(entities.StatusIdle, entities.StatusLoading); err != nil {
			return state, nil, err
		}
		t.emit(MsgLoading, nil)

	case entities.FileAcquired:
		if err := t.require(entities.StatusLoading); err != nil {
			return state, nil, err
		}
		file := e.File
		t.next.ArchiveFile = &file
		t.next.ArchiveSHA256 = e.ArchiveSHA256
		t.emit(MsgExtracting, file)

	case entities.EntriesRead:
		if t.next.ArchiveFile == nil {
			return state, nil, invalid("entries read before the archive was acquired")
		}
		if err := t.advance(entities.StatusLoading, entities.StatusRead); err != nil {
			return state, nil, err
		}
		t.next.Entries = slices.Clone(e.Entries)
		t.emit(MsgEntriesRead, len(e.Entries))

	case entities.ScanStarted:
		if err := t.advance(entities.StatusRead, entities.StatusScanning); err != nil {
			return state, nil, err
		}
		t.emit(MsgStartingScan, nil)

	case entities.PlistFound:
		if err := t.require(entities.StatusScanning); err != nil {
			return state, nil, err
		}
		if t.next.InfoPlistPath != "" {
			return state, nil, entities.NewScanError(entities.KindDuplicatePlist,
				"more than one root Info.plist found", t.next.InfoPlistPath, e.Entry.Path)
		}
		t.next.InfoPlistPath = e.Entry.Path

	case entities.PlistDecoded:
		if err := t.require(entities.StatusScanning); err != nil {
			return state, nil, err
		}
		if t.next.InfoPlistPath == "" || t.next.InfoPlist != nil {
			return state, nil, invalid("Info.plist decoded without a single matching entry")
		}
		t.next.InfoPlist = e.Plist
		t.emit(MsgFoundInfoPlist, t.next.InfoPlistPath)

	case entities.CandidateFound:
		if err := t.require(entities.StatusScanning); err != nil {
			return state, nil, err
		}
		t.next.ExecutableCandidates = append(slices.Clone(t.next.ExecutableCandidates), e.Entry)
		t.emit(MsgFoundExecutable, e.Entry.Path)

	case entities.EntriesClassified:
		if err := t.require(entities.StatusScanning); err != nil {
			return state, nil, err
		}
		if err := s.deriveBundle(t); err != nil {
			return state, nil, err
		}
		t.emit(MsgParsingPrefix+t.next.BundleExecutable.Path, t.next.BundleExecutable.Path)

	case entities.ExecutableAnalyzed:
		if err := t.require(entities.StatusScanning); err != nil {
			return state, nil, err
		}
		if t.next.BundleExecutable == nil {
			return state, nil, invalid("executable analyzed before it was resolved")
		}
		if t.next.MachOMeta != nil {
			return state, nil, invalid("more than one primary Mach-O executable analyzed")
		}
		if e.Meta == nil {
			return state, nil, invalid("executable analyzed without metadata")
		}
		t.next.MachOMeta = e.Meta
		t.next.BinarySupportsNative = s.SupportsNative(e.Meta)

	case entities.ReportAssembled:
		if t.next.MachOMeta == nil {
			return state, nil, invalid("report assembled before the executable was analyzed")
		}
		if err := t.advance(entities.StatusScanning, entities.StatusChecking); err != nil {
			return state, nil, err
		}
		t.next.Info = s.assembleReport(t.next)
		t.emit(MsgCheckingVersions, nil)

	case entities.CheckCompleted:
		if err := t.advance(entities.StatusChecking, entities.StatusFinished); err != nil {
			return state, nil, err
		}
		t.final(MsgComplete, t.next.Info, nil)

	case entities.Failed:
		scanErr := entities.AsScanError(e.Err)
		if scanErr == nil {
			scanErr = entities.NewScanError(entities.KindInternal, "scan failed without an error")
		}
		t.next.Status = entities.StatusFinished
		t.next.Info = nil
		t.next.Err = scanErr
		t.final(MsgErrorPrefix+scanErr.Error(), nil, scanErr)

	default:
		return state, nil, invalid(fmt.Sprintf("unknown event %T", event))
	}

	return t.next, t.messages, nil
}

func (s *scanService) deriveBundle(t *transition) error {
	plist := t.next.InfoPlist
	if plist == nil {
		return entities.NewScanError(entities.KindPlistNotFound, "no root Info.plist found")
	}

	t.next.AppVersion = FirstNonEmpty(plist, s.cfg.VersionKeys)
	t.next.DisplayName = FirstNonEmpty(plist, s.cfg.DisplayNameKeys)
	t.next.Details = DetailList(plist, t.next.ArchiveFile)

	declared, err := DeclaredExecutablePath(plist)
	if err != nil {
		return err
	}
	executable, err := ResolveExecutable(t.next.ExecutableCandidates, declared)
	if err != nil {
		return err
	}

	t.next.BundleExecutable = &executable
	t.next.BinarySize = executable.UncompressedSize
	t.next.DisplayBinarySize = humanize.Bytes(uint64(max(executable.UncompressedSize, 0)))
	return nil
}

func (s *scanService) assembleReport(state entities.ScanState) *entities.ScanReport {
	result := entities.ResultNonNative
	if state.BinarySupportsNative {
		result = entities.ResultNative
	}

	filename := ""
	if state.ArchiveFile != nil {
		filename = state.ArchiveFile.Name
	}

	meta := *state.MachOMeta
	meta.Architectures = slices.Clone(meta.Architectures)

	return &entities.ScanReport{
		Filename:               filename,
		AppVersion:             state.AppVersion,
		DisplayName:            state.DisplayName,
		Result:                 result,
		MachOMeta:              meta,
		InfoPlist:              state.InfoPlist,
		BundleExecutable:       state.BundleExecutable.Path,
		BinarySize:             state.BinarySize,
		DisplayBinarySize:      state.DisplayBinarySize,
		Details:                slices.Clone(state.Details),
		SupportedArchitectures: SupportedArchitectures(&meta),
		ArchiveSHA256:          state.ArchiveSHA256,
	}
}

// transition accumulates the next state and its messages while one event is applied
type transition struct {
	next     entities.ScanState
	messages []entities.ScanMessage
}

func (t *transition) require(status entities.ScanStatus) error {
	if t.next.Status != status {
		return invalid(fmt.Sprintf("expected status %s, scan is %s", status, t.next.Status))
	}
	return nil
}

func (t *transition) advance(from, to entities.ScanStatus) error {
	if err := t.require(from); err != nil {
		return err
	}
	t.next.Status = to
	return nil
}

func (t *transition) emit(message string, data any) {
	t.next.Sequence++
	t.messages = append(t.messages, entities.ScanMessage{
		ScanID:   t.next.ScanID,
		Sequence: t.next.Sequence,
		Status:   t.next.Status,
		Message:  message,
		Data:     data,
	})
}

func (t *transition) final(message string, report *entities.ScanReport, scanErr *entities.ScanError) {
	t.emit(message, nil)
	last := &t.messages[len(t.messages)-1]
	last.Final = true
	if scanErr != nil {
		last.Error = scanErr
		last.Outcome = entities.OutcomeFailed
		return
	}
	last.Data = report
	last.Outcome = entities.OutcomeSucceeded
}

func invalid(message string) error {
	return entities.NewScanError(entities.KindInvalidTransition, message)
}
