package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

// Info.plist keys read by the scanner
const (
	KeyBundleExecutable       = "CFBundleExecutable"
	KeyBundleIdentifier       = "CFBundleIdentifier"
	KeyBundleShortVersion     = "CFBundleShortVersionString"
	KeyHumanReadableCopyright = "NSHumanReadableCopyright"
	KeyMinimumSystemVersion   = "LSMinimumSystemVersion"
)

// DeclaredExecutablePath returns the archive path suffix the plist declares for the main executable.
// A bare name lives in Contents/MacOS; a value with a path separator is relative to Contents.
func DeclaredExecutablePath(plist *entities.PropertyList) (string, error) {
	executable, _ := plist.String(KeyBundleExecutable)
	executable = strings.TrimSpace(executable)
	if executable == "" {
		return "", entities.NewScanError(entities.KindExecutableResolution,
			"Info.plist does not declare "+KeyBundleExecutable)
	}

	if strings.Contains(executable, "/") {
		return "/Contents/" + strings.TrimPrefix(executable, "/"), nil
	}
	return "/Contents/MacOS/" + executable, nil
}

// ResolveExecutable picks the single candidate whose path and the declared path end
// with one another. Zero or several matches are a resolution failure listing the paths involved.
func ResolveExecutable(candidates []entities.ArchiveEntry, declared string) (entities.ArchiveEntry, error) {
	var matches []entities.ArchiveEntry
	for _, candidate := range candidates {
		if strings.HasSuffix(candidate.Path, declared) || strings.HasSuffix(declared, candidate.Path) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return entities.ArchiveEntry{}, entities.NewScanError(entities.KindExecutableResolution,
			fmt.Sprintf("no root bundle executable found for %s", declared), entryPaths(candidates)...)
	default:
		return entities.ArchiveEntry{}, entities.NewScanError(entities.KindExecutableResolution,
			fmt.Sprintf("more than one root bundle executable found for %s", declared), entryPaths(matches)...)
	}
}

// FirstNonEmpty returns the first non-blank string value among keys, in order
func FirstNonEmpty(plist *entities.PropertyList, keys []string) string {
	for _, key := range keys {
		if v, ok := plist.String(key); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DetailList returns the labelled bundle details shown next to a verdict, skipping empty values
func DetailList(plist *entities.PropertyList, file *entities.ArchiveFile) []entities.Detail {
	mimeType := ""
	if file != nil {
		mimeType = file.MimeType
	}

	candidates := []entities.Detail{
		{Label: "Version", Value: stringOf(plist, KeyBundleShortVersion)},
		{Label: "Bundle Identifier", Value: stringOf(plist, KeyBundleIdentifier)},
		{Label: "File Mime Type", Value: mimeType},
		{Label: "Copyright", Value: stringOf(plist, KeyHumanReadableCopyright)},
		{Label: "Minimum System Version", Value: stringOf(plist, KeyMinimumSystemVersion)},
	}

	details := make([]entities.Detail, 0, len(candidates))
	for _, d := range candidates {
		if d.Value == "" {
			continue
		}
		details = append(details, d)
	}
	return details
}

// SupportsNative reports whether any architecture's CPU tag contains the family marker,
// ignoring case
func SupportsNative(meta *entities.MachOMeta, family string) bool {
	if meta == nil || family == "" {
		return false
	}
	marker := strings.ToLower(family)
	for _, arch := range meta.Architectures {
		if strings.Contains(strings.ToLower(arch.CPUType), marker) {
			return true
		}
	}
	return false
}

// SupportedArchitectures drops slices with the reserved CPU type 0
func SupportedArchitectures(meta *entities.MachOMeta) []entities.ArchitectureDescriptor {
	if meta == nil {
		return nil
	}
	out := make([]entities.ArchitectureDescriptor, 0, len(meta.Architectures))
	for _, arch := range meta.Architectures {
		if arch.IsReserved() {
			continue
		}
		out = append(out, arch)
	}
	return out
}

func stringOf(plist *entities.PropertyList, key string) string {
	v, _ := plist.String(key)
	return v
}

func entryPaths(entries []entities.ArchiveEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
