// Package orchestrators coordinates scans across the domain services and gateways.
package orchestrators

import (
	"context"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
	"github.com/ochairo/nativescan/internal/domain/interfaces/services"
)

// Emitter receives scan messages in production order
type Emitter func(entities.ScanMessage)

// ScanOrchestrator drives one scan from loading to the final report.
// All decisions are made by the scan service's state machine; the orchestrator performs the I/O
// and feeds the resulting events.
type ScanOrchestrator struct {
	gateway     gateways.ScanGateway
	scanService services.ScanService
	logger      interfaces.Logger
}

// NewScanOrchestrator creates a new scan orchestrator
func NewScanOrchestrator(gateway gateways.ScanGateway, scanService services.ScanService, logger interfaces.Logger) *ScanOrchestrator {
	if logger == nil {
		logger = &interfaces.StdoutLogger{}
	}
	return &ScanOrchestrator{
		gateway:     gateway,
		scanService: scanService,
		logger:      logger,
	}
}

// Run performs a scan and returns its terminal state. Every message, including exactly one
// final message, is passed to emit before Run returns.
func (o *ScanOrchestrator) Run(ctx context.Context, scanID string, loader gateways.ArchiveLoader, emit Emitter) entities.ScanState {
	r := &scanRun{
		orchestrator: o,
		state:        o.scanService.NewState(scanID),
		emit:         emit,
		logger:       o.logger.With(interfaces.F("scan_id", scanID)),
	}
	r.run(ctx, loader)
	return r.state
}

// scanRun holds the mutable bookkeeping of one Run call
type scanRun struct {
	orchestrator *ScanOrchestrator
	state        entities.ScanState
	emit         Emitter
	logger       interfaces.Logger
}

func (r *scanRun) run(ctx context.Context, loader gateways.ArchiveLoader) {
	gw := r.orchestrator.gateway

	if !r.apply(entities.LoadStarted{}) {
		return
	}

	file, source, err := loader.Load(ctx)
	if err != nil {
		r.fail(err)
		return
	}
	var digest string
	if data, ok := source.([]byte); ok {
		digest = gw.ChecksumBytes(data)
	}
	if !r.apply(entities.FileAcquired{File: file, ArchiveSHA256: digest}) {
		return
	}

	reader, err := gw.OpenArchive(ctx, source)
	if err != nil {
		r.fail(err)
		return
	}
	if !r.apply(entities.EntriesRead{Entries: reader.Entries()}) {
		return
	}
	if !r.apply(entities.ScanStarted{}) {
		return
	}
	if !r.classify(ctx, reader) {
		return
	}
	if !r.apply(entities.EntriesClassified{}) {
		return
	}

	executable := *r.state.BundleExecutable
	data, err := reader.ReadBytes(ctx, executable)
	if err != nil {
		r.fail(err)
		return
	}
	meta, err := gw.AnalyzeMachO(data)
	if err != nil {
		scanErr := entities.WrapScanError(entities.KindMachOFormat, "failed to parse executable", err)
		scanErr.Entries = []string{executable.Path}
		r.fail(scanErr)
		return
	}
	r.logger.Debug("Analyzed executable",
		interfaces.F("path", executable.Path),
		interfaces.F("architectures", len(meta.Architectures)),
		interfaces.F("fat", meta.Fat))
	if !r.apply(entities.ExecutableAnalyzed{Meta: meta}) {
		return
	}
	if !r.apply(entities.ReportAssembled{}) {
		return
	}

	if err := gw.CheckNativeVersions(ctx, r.state.Info); err != nil {
		r.fail(err)
		return
	}
	r.apply(entities.CheckCompleted{})
}

// classify dispatches every entry by role. The root Info.plist is decoded as soon as it is found,
// so a duplicate is rejected before its bytes are read.
func (r *scanRun) classify(ctx context.Context, reader gateways.ArchiveReader) bool {
	for _, entry := range r.state.Entries {
		switch r.orchestrator.scanService.ClassifyEntry(entry) {
		case entities.RoleDirectory, entities.RoleUnknown:
			continue
		case entities.RoleRootInfoPlist:
			if !r.apply(entities.PlistFound{Entry: entry}) {
				return false
			}
			plist, err := r.decodePlist(ctx, reader, entry)
			if err != nil {
				r.fail(err)
				return false
			}
			if !r.apply(entities.PlistDecoded{Plist: plist}) {
				return false
			}
		case entities.RoleExecutableCandidate:
			if !r.apply(entities.CandidateFound{Entry: entry}) {
				return false
			}
		default:
			r.fail(entities.NewScanError(entities.KindInternal, "unhandled entry role", entry.Path))
			return false
		}
	}
	return true
}

func (r *scanRun) decodePlist(ctx context.Context, reader gateways.ArchiveReader, entry entities.ArchiveEntry) (*entities.PropertyList, error) {
	data, err := reader.ReadBytes(ctx, entry)
	if err != nil {
		return nil, err
	}
	plist, err := r.orchestrator.gateway.DecodePlist(data)
	if err != nil {
		scanErr := entities.AsScanError(err)
		if len(scanErr.Entries) == 0 {
			scanErr = &entities.ScanError{Kind: scanErr.Kind, Message: scanErr.Message, Entries: []string{entry.Path}, Err: scanErr.Err}
		}
		return nil, scanErr
	}
	return plist, nil
}

// apply feeds one event to the state machine and emits its messages.
// A rejected event fails the scan; apply then reports false.
func (r *scanRun) apply(event entities.ScanEvent) bool {
	next, messages, err := r.orchestrator.scanService.Transition(r.state, event)
	if err != nil {
		r.fail(err)
		return false
	}

	if next.Status != r.state.Status {
		r.logger.Debug("Scan phase changed",
			interfaces.F("from", string(r.state.Status)),
			interfaces.F("to", string(next.Status)))
	}
	r.state = next
	r.publish(messages)
	return true
}

// fail moves the scan to finished with err. It is a no-op once the scan is terminal.
func (r *scanRun) fail(err error) {
	if r.state.Terminal() {
		return
	}

	next, messages, tErr := r.orchestrator.scanService.Transition(r.state, entities.Failed{Err: err})
	if tErr != nil {
		r.logger.Error("Failed to record scan failure", interfaces.F("error", tErr.Error()))
		return
	}

	fields := []interfaces.Field{
		interfaces.F("kind", string(next.Err.Kind)),
		interfaces.F("error", next.Err.Error()),
		interfaces.F("phase", string(r.state.Status)),
	}
	if len(next.Err.Entries) > 0 {
		fields = append(fields, interfaces.F("entries", next.Err.Entries))
	}
	r.logger.Error("Scan failed", fields...)

	r.state = next
	r.publish(messages)
}

func (r *scanRun) publish(messages []entities.ScanMessage) {
	if r.emit == nil {
		return
	}
	for _, m := range messages {
		r.emit(m)
	}
}
