package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
	"github.com/ochairo/nativescan/internal/domain/interfaces/services"
)

// CommandStart is the only command a scan worker accepts
const CommandStart = "start"

// messageBuffer is the channel capacity; a scan emits about ten messages plus one per executable candidate
const messageBuffer = 32

var (
	// ErrWorkerBusy is returned when a scan is posted while another is still running
	ErrWorkerBusy = errors.New("scan worker is busy")

	// ErrUnknownCommand is returned for any command other than CommandStart
	ErrUnknownCommand = errors.New("unknown scan worker command")

	// ErrNoFinalMessage is returned by Await when a stream ends without its final message
	ErrNoFinalMessage = errors.New("scan stream closed without a final message")
)

// StartCommand asks a worker to scan an in-memory archive
type StartCommand struct {
	Command    string
	File       entities.ArchiveFile
	ByteBuffer []byte
}

// ScanWorker runs one scan at a time on its own goroutine and streams its messages back.
// It is the only concurrency boundary of the pipeline.
type ScanWorker struct {
	orchestrator *ScanOrchestrator
	logger       interfaces.Logger
	busy         atomic.Bool
	newScanID    func() string
}

// NewScanWorker creates a worker around a fresh orchestrator
func NewScanWorker(gateway gateways.ScanGateway, scanService services.ScanService, logger interfaces.Logger) *ScanWorker {
	if logger == nil {
		logger = &interfaces.StdoutLogger{}
	}
	return &ScanWorker{
		orchestrator: NewScanOrchestrator(gateway, scanService, logger),
		logger:       logger,
		newScanID:    uuid.NewString,
	}
}

// Post starts a scan of cmd.ByteBuffer. The worker takes ownership of the buffer; callers must not
// touch it afterwards. The returned channel yields messages in production order and is closed
// after the final message.
func (w *ScanWorker) Post(cmd StartCommand) (<-chan entities.ScanMessage, error) {
	if cmd.Command != CommandStart {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
	return w.PostLoader(&bufferLoader{file: cmd.File, data: cmd.ByteBuffer})
}

// PostLoader starts a scan of whatever loader acquires
func (w *ScanWorker) PostLoader(loader gateways.ArchiveLoader) (<-chan entities.ScanMessage, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrWorkerBusy
	}

	scanID := w.newScanID()
	ch := make(chan entities.ScanMessage, messageBuffer)

	go func() {
		defer close(ch)
		// Runs before close so a caller that drained the channel can post again
		defer w.busy.Store(false)

		var last entities.ScanMessage
		emit := func(m entities.ScanMessage) {
			last = m
			ch <- m
		}

		var catcher panics.Catcher
		catcher.Try(func() {
			w.orchestrator.Run(context.Background(), scanID, loader, emit)
		})

		if recovered := catcher.Recovered(); recovered != nil {
			w.logger.Error("Scan panicked",
				interfaces.F("scan_id", scanID),
				interfaces.F("panic", recovered.String()))
			if !last.Final {
				ch <- panicMessage(scanID, last.Sequence+1, recovered.AsError())
			}
		}
	}()

	return ch, nil
}

// Busy reports whether a scan is running
func (w *ScanWorker) Busy() bool {
	return w.busy.Load()
}

func panicMessage(scanID string, sequence int, err error) entities.ScanMessage {
	scanErr := entities.WrapScanError(entities.KindInternal, "scan worker panicked", err)
	return entities.ScanMessage{
		ScanID:   scanID,
		Sequence: sequence,
		Status:   entities.StatusFinished,
		Message:  "🚫 Error: " + scanErr.Error(),
		Error:    scanErr,
		Final:    true,
		Outcome:  entities.OutcomeFailed,
	}
}

// Await drains ch, passing every message to receiver, and returns the final message
func Await(ch <-chan entities.ScanMessage, receiver func(entities.ScanMessage)) (entities.ScanMessage, error) {
	var final entities.ScanMessage
	seen := false
	for m := range ch {
		if receiver != nil {
			receiver(m)
		}
		if m.Final {
			final, seen = m, true
		}
	}
	if !seen {
		return entities.ScanMessage{}, ErrNoFinalMessage
	}
	return final, nil
}

// bufferLoader serves an archive that is already in memory
type bufferLoader struct {
	file entities.ArchiveFile
	data []byte
}

func (l *bufferLoader) Load(ctx context.Context) (entities.ArchiveFile, any, error) {
	if err := ctx.Err(); err != nil {
		return entities.ArchiveFile{}, nil, err
	}
	if l.data == nil {
		return entities.ArchiveFile{}, nil, entities.NewScanError(entities.KindUnsupportedSource,
			"no archive bytes given for "+l.file.Name)
	}

	file := l.file
	file.Size = int64(len(l.data))
	if file.MimeType == "" {
		file.MimeType = "application/zip"
	}
	return file, l.data, nil
}
