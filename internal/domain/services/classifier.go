package services

import (
	"strings"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

const (
	// Deeper entries belong to nested frameworks, plugins or helper apps
	maxExecutableSegments = 4
	maxRootPlistSegments  = 3

	executableMarker = "Contents/MacOS/"
	bareRootPlist    = "Contents/Info.plist"
)

var rootPlistSuffixes = []string{
	".app/Contents/Info.plist",
	".zip/Contents/Info.plist",
}

// ClassifyEntry maps an archive entry to its role in the bundle using only its path and
// directory flag. Rules are evaluated in order; the first match wins.
func ClassifyEntry(entry entities.ArchiveEntry) entities.EntryRole {
	if entry.IsDirectory {
		return entities.RoleDirectory
	}

	segments := pathSegments(entry.Path)

	if segments <= maxExecutableSegments && strings.Contains(entry.Path, executableMarker) {
		return entities.RoleExecutableCandidate
	}

	if matchesRootInfoPlist(entry.Path, segments) {
		return entities.RoleRootInfoPlist
	}

	return entities.RoleUnknown
}

func matchesRootInfoPlist(path string, segments int) bool {
	if segments > maxRootPlistSegments || strings.HasSuffix(path, "/") {
		return false
	}
	if path == bareRootPlist {
		return true
	}
	for _, suffix := range rootPlistSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func pathSegments(path string) int {
	return strings.Count(path, "/") + 1
}
