package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ochairo/nativescan/internal/domain-adapters/gateways"
	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/services"
)

func newInspectCmd(env *environment) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the raw pieces a scan works on",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "entries <archive>",
		Short: "List archive entries with the role each plays in the bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectEntries(cmd.Context(), env, args[0], asJSON)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "plist <file>",
		Short: "Decode a property list (XML, binary or OpenStep)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return inspectPlist(env, args[0], asJSON)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "macho <binary>",
		Short: "Print the architectures of a Mach-O file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return inspectMachO(env, args[0], asJSON)
		},
	})

	return cmd
}

type roledEntry struct {
	entities.ArchiveEntry
	Role entities.EntryRole `json:"role"`
}

func inspectEntries(ctx context.Context, env *environment, path string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, closer, err := env.setup()
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close
	defer closer.Close()

	data, err := afero.ReadFile(env.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	archive, err := gateways.NewZipArchiveGateway(cfg.MaxEntrySize).OpenArchive(ctx, data)
	if err != nil {
		return err
	}

	entries := archive.Entries()
	roles := make([]entities.EntryRole, len(entries))
	for i, e := range entries {
		roles[i] = services.ClassifyEntry(e)
	}

	if asJSON {
		out := make([]roledEntry, len(entries))
		for i, e := range entries {
			out[i] = roledEntry{ArchiveEntry: e, Role: roles[i]}
		}
		return writeJSON(env.stdout, out)
	}
	printEntries(env.stdout, entries, roles)
	return nil
}

func inspectPlist(env *environment, path string, asJSON bool) error {
	data, err := afero.ReadFile(env.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read plist: %w", err)
	}
	list, format, err := gateways.NewPlistDecoder().DecodeWithFormat(data)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(env.stdout, struct {
			Format string                 `json:"format"`
			Plist  *entities.PropertyList `json:"plist"`
		}{format, list})
	}

	fmt.Fprintf(env.stdout, "%s: %s property list, %d keys\n", filepath.Base(path), format, list.Len())
	fmt.Fprintln(env.stdout, separator)
	for _, key := range list.Keys() {
		v, _ := list.Get(key)
		fmt.Fprintf(env.stdout, "%-32s %s\n", key, describeValue(v))
	}
	return nil
}

// describeValue renders scalars inline and summarizes containers
func describeValue(v entities.Value) string {
	switch v.Kind {
	case entities.KindString:
		return v.Str
	case entities.KindInteger:
		if v.Unsigned {
			return fmt.Sprintf("%d", v.Uint)
		}
		return fmt.Sprintf("%d", v.Int)
	case entities.KindReal:
		return fmt.Sprintf("%g", v.Real)
	case entities.KindBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case entities.KindDate:
		return v.Date.Format("2006-01-02T15:04:05Z")
	case entities.KindData:
		return fmt.Sprintf("<%d bytes>", len(v.Data))
	case entities.KindArray:
		return fmt.Sprintf("[%d items]", len(v.Array))
	case entities.KindDict:
		return fmt.Sprintf("{%d keys}", v.Dict.Len())
	default:
		return v.Kind.String()
	}
}

func inspectMachO(env *environment, path string, asJSON bool) error {
	data, err := afero.ReadFile(env.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read binary: %w", err)
	}
	meta, err := gateways.NewMachOAnalyzer().AnalyzeMachO(data)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(env.stdout, meta)
	}
	printMachO(env.stdout, filepath.Base(path), meta)
	return nil
}
