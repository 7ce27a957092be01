package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

func TestClassifyEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry entities.ArchiveEntry
		want  entities.EntryRole
	}{
		{
			name:  "directory wins over every other rule",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/MacOS/", IsDirectory: true},
			want:  entities.RoleDirectory,
		},
		{
			name:  "root plist inside app bundle",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/Info.plist"},
			want:  entities.RoleRootInfoPlist,
		},
		{
			name:  "bare Contents root",
			entry: entities.ArchiveEntry{Path: "Contents/Info.plist"},
			want:  entities.RoleRootInfoPlist,
		},
		{
			name:  "zip wrapped as app",
			entry: entities.ArchiveEntry{Path: "Tool.zip/Contents/Info.plist"},
			want:  entities.RoleRootInfoPlist,
		},
		{
			name:  "nested app plist is too deep",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/Resources/Nested.app/Contents/Info.plist"},
			want:  entities.RoleUnknown,
		},
		{
			name:  "plist with unrecognized parent",
			entry: entities.ArchiveEntry{Path: "Folder/Contents/Info.plist"},
			want:  entities.RoleUnknown,
		},
		{
			name:  "main executable",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/MacOS/App"},
			want:  entities.RoleExecutableCandidate,
		},
		{
			name:  "bare Contents executable",
			entry: entities.ArchiveEntry{Path: "Contents/MacOS/App"},
			want:  entities.RoleExecutableCandidate,
		},
		{
			name:  "five segment executable is too deep",
			entry: entities.ArchiveEntry{Path: "Outer/App.app/Contents/MacOS/App"},
			want:  entities.RoleUnknown,
		},
		{
			name:  "framework binary",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/Frameworks/Lib.framework/Lib"},
			want:  entities.RoleUnknown,
		},
		{
			name:  "resource file",
			entry: entities.ArchiveEntry{Path: "App.app/Contents/Resources/icon.icns"},
			want:  entities.RoleUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEntry(tt.entry))
		})
	}
}

func TestClassifyEntry_Deterministic(t *testing.T) {
	entry := entities.ArchiveEntry{Path: "App.app/Contents/Info.plist", UncompressedSize: 10}
	first := ClassifyEntry(entry)

	entry.UncompressedSize = 99999
	assert.Equal(t, first, ClassifyEntry(entry), "classification must depend on the path only")
}

func TestEntryRole_String(t *testing.T) {
	assert.Equal(t, "directory", entities.RoleDirectory.String())
	assert.Equal(t, "rootInfoPlist", entities.RoleRootInfoPlist.String())
	assert.Equal(t, "executableCandidate", entities.RoleExecutableCandidate.String())
	assert.Equal(t, "unknown", entities.RoleUnknown.String())
}
