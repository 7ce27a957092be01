// Package entities defines core domain models and data structures.
package entities

import "time"

// ArchiveFile describes the archive handed to a scan (the "file descriptor" of the start command)
type ArchiveFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path,omitempty"`
	Size     int64     `json:"size"`
	MimeType string    `json:"type,omitempty"`
	Modified time.Time `json:"lastModified,omitempty"`
}

// ArchiveEntry represents one entry of a zip-style container
type ArchiveEntry struct {
	Path             string    `json:"path"` // '/'-separated, relative to the archive root
	IsDirectory      bool      `json:"isDirectory"`
	CompressedSize   int64     `json:"compressedSize"`
	UncompressedSize int64     `json:"uncompressedSize"`
	Modified         time.Time `json:"modified,omitempty"`
}

// EntryRole is the semantic role an archive entry plays in a bundle
type EntryRole int

// The closed set of entry roles. Adding a role requires updating every switch over EntryRole.
const (
	RoleUnknown EntryRole = iota
	RoleDirectory
	RoleRootInfoPlist
	RoleExecutableCandidate
)

func (r EntryRole) String() string {
	switch r {
	case RoleDirectory:
		return "directory"
	case RoleRootInfoPlist:
		return "rootInfoPlist"
	case RoleExecutableCandidate:
		return "executableCandidate"
	default:
		return "unknown"
	}
}

// MarshalText renders the role by name
func (r EntryRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
