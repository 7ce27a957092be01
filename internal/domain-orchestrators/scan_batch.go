package orchestrators

import (
	"context"
	"sort"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
	"github.com/ochairo/nativescan/internal/domain/interfaces/services"
)

// LoaderFactory returns the loader for one archive path
type LoaderFactory func(path string) gateways.ArchiveLoader

// BatchResult is the outcome of scanning one archive of a batch
type BatchResult struct {
	Path  string
	Final entities.ScanMessage
	Err   error // worker-level failure; scan failures are reported on Final
}

// Report returns the scan report of a successful scan
func (r BatchResult) Report() (*entities.ScanReport, bool) {
	if r.Err != nil {
		return nil, false
	}
	return r.Final.Report()
}

// Failed reports whether the archive could not be scanned successfully
func (r BatchResult) Failed() bool {
	return r.Err != nil || r.Final.Outcome != entities.OutcomeSucceeded
}

// BatchScanner scans several archives concurrently, one worker per archive
type BatchScanner struct {
	gateway     gateways.ScanGateway
	scanService services.ScanService
	logger      interfaces.Logger
	newLoader   LoaderFactory
	parallel    int
}

// NewBatchScanner creates a batch scanner running at most parallel scans at once
func NewBatchScanner(
	gateway gateways.ScanGateway,
	scanService services.ScanService,
	logger interfaces.Logger,
	newLoader LoaderFactory,
	parallel int,
) *BatchScanner {
	if logger == nil {
		logger = &interfaces.StdoutLogger{}
	}
	if parallel <= 0 {
		parallel = 1
	}
	return &BatchScanner{
		gateway:     gateway,
		scanService: scanService,
		logger:      logger,
		newLoader:   newLoader,
		parallel:    parallel,
	}
}

// ScanAll scans every path and returns the results in input order. onMessage, when set, sees every
// message of every scan; it is called from multiple goroutines.
func (b *BatchScanner) ScanAll(ctx context.Context, paths []string, onMessage func(path string, m entities.ScanMessage)) []BatchResult {
	type indexed struct {
		index  int
		result BatchResult
	}

	p := concpool.NewWithResults[indexed]().WithMaxGoroutines(b.parallel)
	for i, path := range paths {
		p.Go(func() indexed {
			return indexed{index: i, result: b.scanOne(ctx, path, onMessage)}
		})
	}
	collected := p.Wait()

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	results := make([]BatchResult, len(collected))
	for i, c := range collected {
		results[i] = c.result
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	b.logger.Info("Batch scan complete",
		interfaces.F("archives", len(results)),
		interfaces.F("failed", failed))

	return results
}

func (b *BatchScanner) scanOne(ctx context.Context, path string, onMessage func(string, entities.ScanMessage)) BatchResult {
	if err := ctx.Err(); err != nil {
		return BatchResult{Path: path, Err: err}
	}

	worker := NewScanWorker(b.gateway, b.scanService, b.logger.With(interfaces.F("archive", path)))
	ch, err := worker.PostLoader(b.newLoader(path))
	if err != nil {
		return BatchResult{Path: path, Err: err}
	}

	final, err := Await(ch, func(m entities.ScanMessage) {
		if onMessage != nil {
			onMessage(path, m)
		}
	})
	return BatchResult{Path: path, Final: final, Err: err}
}
