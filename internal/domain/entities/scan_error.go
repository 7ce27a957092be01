package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a scan failure
type ErrorKind string

// Scan failure kinds. Every kind is fatal to the scan.
const (
	KindUnsupportedSource    ErrorKind = "unsupported_source"
	KindArchiveFormat        ErrorKind = "archive_format"
	KindPlistFormat          ErrorKind = "plist_format"
	KindPlistNotFound        ErrorKind = "plist_not_found"
	KindDuplicatePlist       ErrorKind = "duplicate_plist"
	KindMachOFormat          ErrorKind = "macho_format"
	KindExecutableResolution ErrorKind = "executable_resolution"
	KindEntryTooLarge        ErrorKind = "entry_too_large"
	KindInvalidTransition    ErrorKind = "invalid_transition"
	KindInternal             ErrorKind = "internal"
)

// ScanError is the structured failure carried to the caller on the final scan message.
// Entries holds the archive paths involved, e.g. the conflicting executables.
type ScanError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Entries []string  `json:"entries,omitempty"`
	Err     error     `json:"-"`
}

// NewScanError creates a scan error of the given kind
func NewScanError(kind ErrorKind, message string, entries ...string) *ScanError {
	return &ScanError{Kind: kind, Message: message, Entries: entries}
}

// WrapScanError creates a scan error of the given kind around a cause
func WrapScanError(kind ErrorKind, message string, cause error) *ScanError {
	return &ScanError{Kind: kind, Message: message, Err: cause}
}

// Error implements the error interface
func (e *ScanError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Entries) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Entries, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is matches any ScanError of the same kind, so the sentinels below work with errors.Is
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrUnsupportedSource    = &ScanError{Kind: KindUnsupportedSource}
	ErrArchiveFormat        = &ScanError{Kind: KindArchiveFormat}
	ErrPlistFormat          = &ScanError{Kind: KindPlistFormat}
	ErrPlistNotFound        = &ScanError{Kind: KindPlistNotFound}
	ErrDuplicatePlist       = &ScanError{Kind: KindDuplicatePlist}
	ErrMachOFormat          = &ScanError{Kind: KindMachOFormat}
	ErrExecutableResolution = &ScanError{Kind: KindExecutableResolution}
	ErrEntryTooLarge        = &ScanError{Kind: KindEntryTooLarge}
	ErrInvalidTransition    = &ScanError{Kind: KindInvalidTransition}
	ErrInternal             = &ScanError{Kind: KindInternal}
)

// AsScanError normalizes any error into a ScanError, using kind internal for foreign errors
func AsScanError(err error) *ScanError {
	if err == nil {
		return nil
	}
	var se *ScanError
	if errors.As(err, &se) {
		return se
	}
	return WrapScanError(KindInternal, "scan failed", err)
}
