package testfixtures

import (
	"bytes"
	"time"

	"github.com/klauspost/compress/zip"
	"howett.net/plist"
)

// Entry is one file or directory in a synthetic archive. Names ending in "/" are directories.
type Entry struct {
	Name string
	Data []byte
}

// Zip builds a deflated zip archive holding entries in the given order
func Zip(entries ...Entry) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: modified}
		if len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/' {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(e.Data); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Plist encodes v as a property list in the given howett.net/plist format
func Plist(v any, format int) []byte {
	data, err := plist.MarshalIndent(v, format, "\t")
	if err != nil {
		panic(err)
	}
	return data
}

// InfoPlist returns a minimal bundle dictionary
func InfoPlist(executable, version string) map[string]any {
	return map[string]any{
		"CFBundleExecutable":         executable,
		"CFBundleIdentifier":         "com.example." + executable,
		"CFBundleName":               executable,
		"CFBundleShortVersionString": version,
		"NSHumanReadableCopyright":   "Copyright 2024 Example",
		"LSMinimumSystemVersion":     "11.0",
	}
}

// App builds a zipped Name.app bundle whose executable is exe. The Info.plist is binary encoded.
func App(name, version string, exe []byte) []byte {
	root := name + ".app/"
	return Zip(
		Entry{Name: root},
		Entry{Name: root + "Contents/"},
		Entry{Name: root + "Contents/Info.plist", Data: Plist(InfoPlist(name, version), plist.BinaryFormat)},
		Entry{Name: root + "Contents/MacOS/"},
		Entry{Name: root + "Contents/MacOS/" + name, Data: exe},
		Entry{Name: root + "Contents/Resources/"},
		Entry{Name: root + "Contents/Resources/Info.plist", Data: Plist(map[string]any{"Nested": true}, plist.XMLFormat)},
	)
}
