package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/ochairo/nativescan/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/nativescan/internal/domain-orchestrators"
	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	domainGateways "github.com/ochairo/nativescan/internal/domain/interfaces/gateways"
	domainServices "github.com/ochairo/nativescan/internal/domain/interfaces/services"
	"github.com/ochairo/nativescan/internal/domain/services"
)

type scanOptions struct {
	dir       string
	glob      string
	json      bool
	target    string
	parallel  int
	signature string
	keyring   string
}

func newScanCmd(env *environment) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [archives or URLs...]",
		Short: "Scan zipped app bundles for native Apple silicon support",
		Long: `Scan one or more zipped .app bundles. Each archive's Info.plist is decoded,
its main executable located and its Mach-O architectures read.

Examples:
  nativescan scan Firefox.zip
  nativescan scan https://example.com/releases/Demo.zip
  nativescan scan --dir ~/Downloads --json
  nativescan scan --dir ~/Downloads --glob "Firefox*.zip"
  nativescan scan Demo.zip --signature Demo.zip.asc --keyring vendor.asc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parallel") && opts.parallel <= 0 {
				return fmt.Errorf("--parallel must be positive")
			}
			return runScan(cmd.Context(), env, opts, cmd.Flags().Changed("target"), args)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "scan every .zip archive below this directory")
	cmd.Flags().StringVar(&opts.glob, "glob", "", "with --dir, scan only archives matching this pattern (e.g. \"*/Firefox*.zip\")")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&opts.target, "target", "", "CPU family that counts as native (default from config: arm)")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "number of archives scanned at once (default from config)")
	cmd.Flags().StringVar(&opts.signature, "signature", "", "detached OpenPGP signature of the archive")
	cmd.Flags().StringVar(&opts.keyring, "keyring", "", "public keyring used to check --signature")

	return cmd
}

func runScan(ctx context.Context, env *environment, opts *scanOptions, targetSet bool, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, closer, err := env.setup()
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close
	defer closer.Close()

	if targetSet {
		cfg.TargetFamily = opts.target
	}
	if opts.parallel > 0 {
		cfg.Parallel = opts.parallel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.glob != "" && opts.dir == "" {
		return fmt.Errorf("--glob needs --dir")
	}

	paths := append([]string{}, args...)
	if opts.dir != "" {
		found, err := findArchives(gateways.NewArchiveFinder(env.fs), opts.dir, opts.glob)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no archives to scan: pass archive paths or --dir")
	}

	var verified *verifiedArchive
	if opts.signature != "" || opts.keyring != "" {
		if opts.signature == "" || opts.keyring == "" {
			return fmt.Errorf("--signature and --keyring must be used together")
		}
		if len(paths) != 1 {
			return fmt.Errorf("--signature checks a single archive, got %d", len(paths))
		}
		if gateways.IsRemoteArchive(paths[0]) {
			return fmt.Errorf("--signature needs a local archive")
		}
		verified, err = loadVerified(ctx, env, cfg, paths[0], opts.signature, opts.keyring)
		if err != nil {
			return err
		}
		if !opts.json {
			fmt.Fprintf(env.stdout, "🔏 Signature verified: %s (%s in keyring)\n",
				filepath.Base(paths[0]), english.Plural(verified.keys, "key", ""))
		}
	}

	var onMessage func(string, entities.ScanMessage)
	if env.verbose && !opts.json {
		var mu sync.Mutex
		onMessage = func(path string, m entities.ScanMessage) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(env.stdout, "[%s] %s\n", filepath.Base(path), m.Message)
		}
	}

	gateway := gateways.NewCompositeScanGateway(cfg)
	scanService := services.NewScanService(cfg)

	var results []orchestrators.BatchResult
	if verified != nil {
		results = []orchestrators.BatchResult{scanVerified(gateway, scanService, logger, verified, onMessage)}
	} else {
		scanner := orchestrators.NewBatchScanner(
			gateway,
			scanService,
			logger,
			func(path string) domainGateways.ArchiveLoader {
				if gateways.IsRemoteArchive(path) {
					return gateways.NewHTTPArchiveLoader(nil, path, cfg.MaxEntrySize)
				}
				return gateways.NewFSArchiveLoader(env.fs, path, cfg.MaxEntrySize)
			},
			cfg.Parallel,
		)
		results = scanner.ScanAll(ctx, paths, onMessage)
	}

	if opts.json {
		if err := writeJSON(env.stdout, toJSONResults(results)); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(env.stdout, r, env.verbose)
		}
	}

	for _, r := range results {
		if r.Failed() {
			return errScanFailed
		}
	}
	return nil
}

func findArchives(finder *gateways.ArchiveFinder, dir, pattern string) ([]string, error) {
	if pattern == "" {
		return finder.FindRecursive(dir)
	}
	return finder.FindByGlob(dir, pattern)
}

// verifiedArchive is an archive read once and checked against its signature
type verifiedArchive struct {
	path string
	file entities.ArchiveFile
	data []byte
	keys int
}

func loadVerified(ctx context.Context, env *environment, cfg entities.ScanConfig, path, signaturePath, keyringPath string) (*verifiedArchive, error) {
	file, source, err := gateways.NewFSArchiveLoader(env.fs, path, cfg.MaxEntrySize).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	data, ok := source.([]byte)
	if !ok {
		return nil, fmt.Errorf("failed to read archive: unexpected source %T", source)
	}

	keys, err := verifySignature(ctx, env, data, signaturePath, keyringPath)
	if err != nil {
		return nil, err
	}
	return &verifiedArchive{path: path, file: file, data: data, keys: keys}, nil
}

// scanVerified hands the verified bytes to a worker so the scan sees exactly what was checked
func scanVerified(
	gateway domainGateways.ScanGateway,
	scanService domainServices.ScanService,
	logger interfaces.Logger,
	archive *verifiedArchive,
	onMessage func(string, entities.ScanMessage),
) orchestrators.BatchResult {
	worker := orchestrators.NewScanWorker(gateway, scanService, logger.With(interfaces.F("archive", archive.path)))
	ch, err := worker.Post(orchestrators.StartCommand{
		Command:    orchestrators.CommandStart,
		File:       archive.file,
		ByteBuffer: archive.data,
	})
	archive.data = nil // owned by the worker now
	if err != nil {
		return orchestrators.BatchResult{Path: archive.path, Err: err}
	}

	final, err := orchestrators.Await(ch, func(m entities.ScanMessage) {
		if onMessage != nil {
			onMessage(archive.path, m)
		}
	})
	return orchestrators.BatchResult{Path: archive.path, Final: final, Err: err}
}

// jsonResult is the machine-readable outcome of one archive
type jsonResult struct {
	Path    string               `json:"path"`
	ScanID  string               `json:"scanId,omitempty"`
	Outcome entities.Outcome     `json:"outcome"`
	Report  *entities.ScanReport `json:"report,omitempty"`
	Error   *entities.ScanError  `json:"error,omitempty"`
}

func toJSONResults(results []orchestrators.BatchResult) []jsonResult {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{Path: r.Path, ScanID: r.Final.ScanID, Outcome: r.Final.Outcome, Error: r.Final.Error}
		if report, ok := r.Report(); ok {
			jr.Report = report
		}
		if r.Err != nil {
			jr.Outcome = entities.OutcomeFailed
			jr.Error = entities.AsScanError(r.Err)
		}
		out = append(out, jr)
	}
	return out
}
