package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	orchestrators "github.com/ochairo/nativescan/internal/domain-orchestrators"
	"github.com/ochairo/nativescan/internal/domain/entities"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// verdictLine renders the one-line summary of a batch result
func verdictLine(r orchestrators.BatchResult) string {
	name := filepath.Base(r.Path)
	if report, ok := r.Report(); ok {
		if report.Native() {
			return fmt.Sprintf("✅ %s: native", name)
		}
		return fmt.Sprintf("🔶 %s: non-native", name)
	}
	return fmt.Sprintf("🚫 %s: error: %v", name, failureOf(r))
}

func failureOf(r orchestrators.BatchResult) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Final.Error != nil {
		return r.Final.Error
	}
	return fmt.Errorf("scan did not succeed")
}

func printResult(w io.Writer, r orchestrators.BatchResult, verbose bool) {
	fmt.Fprintln(w, verdictLine(r))

	report, ok := r.Report()
	if !ok {
		return
	}

	if report.DisplayName != "" {
		fmt.Fprintf(w, "   Name:          %s\n", report.DisplayName)
	}
	fmt.Fprintf(w, "   Version:       %s\n", orDash(report.AppVersion))
	fmt.Fprintf(w, "   Executable:    %s (%s)\n", report.BundleExecutable, report.DisplayBinarySize)
	fmt.Fprintf(w, "   Architectures: %s\n", architectureList(report.SupportedArchitectures))

	if !verbose {
		return
	}
	for _, d := range report.Details {
		fmt.Fprintf(w, "   %s: %s\n", d.Label, d.Value)
	}
	if report.ArchiveSHA256 != "" {
		fmt.Fprintf(w, "   SHA-256: %s\n", report.ArchiveSHA256)
	}
}

func architectureList(archs []entities.ArchitectureDescriptor) string {
	if len(archs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(archs))
	for _, a := range archs {
		names = append(names, a.CPUType)
	}
	return strings.Join(names, ", ")
}

func printEntries(w io.Writer, entries []entities.ArchiveEntry, roles []entities.EntryRole) {
	for i, e := range entries {
		size := "-"
		if !e.IsDirectory {
			size = humanize.Bytes(uint64(e.UncompressedSize)) //nolint:gosec // sizes are never negative
		}
		fmt.Fprintf(w, "%-20s %10s  %s\n", roles[i], size, e.Path)
	}
}

func printMachO(w io.Writer, name string, meta *entities.MachOMeta) {
	kind := "thin"
	if meta.Fat {
		kind = "fat"
	}
	fmt.Fprintf(w, "%s: %s Mach-O, %d architecture(s)\n", name, kind, len(meta.Architectures))
	fmt.Fprintln(w, separator)
	for _, a := range meta.Architectures {
		fmt.Fprintf(w, "%-10s %-8s %d-bit %-10s", a.CPUType, orDash(a.CPUSubtype), a.Bits, a.FileType)
		if meta.Fat {
			fmt.Fprintf(w, " offset %d size %s", a.Offset, humanize.Bytes(uint64(a.Size))) //nolint:gosec // sizes are never negative
		}
		fmt.Fprintf(w, " %d load commands\n", a.LoadCommandsInfo.Count)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
