package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
	"github.com/ochairo/nativescan/internal/external-adapters/logging"
	"github.com/ochairo/nativescan/internal/external-adapters/yaml"
)

// errScanFailed signals that at least one archive failed; details were already printed
var errScanFailed = errors.New("one or more scans failed")

func main() {
	root := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errScanFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// environment carries what every subcommand needs
type environment struct {
	fs         afero.Fs
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	verbose    bool
}

func newRootCmd(fs afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	env := &environment{fs: fs, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "nativescan",
		Short:         "Check whether zipped macOS apps run natively on Apple silicon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&env.configFile, "config", "", "config file (default is ./"+yaml.DefaultConfigFile+" when present)")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "show progress messages and debug logs")

	root.AddCommand(newScanCmd(env), newInspectCmd(env), newVerifyCmd(env))
	return root
}

// setup loads the configuration and builds the logger. The closer must be closed when done.
func (e *environment) setup() (entities.ScanConfig, interfaces.Logger, io.Closer, error) {
	cfg, err := yaml.NewConfigParser(e.fs).Load(e.configFile)
	if err != nil {
		return entities.ScanConfig{}, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if e.verbose {
		cfg.Log.Level = "debug"
	}

	logger, closer := logging.New(cfg.Log, e.stderr)
	return cfg, logger, closer, nil
}
