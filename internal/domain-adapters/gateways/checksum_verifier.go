package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// checksumVerifier computes and verifies SHA-256 archive digests
type checksumVerifier struct {
	fs afero.Fs
}

// NewChecksumVerifier creates a new checksum verifier reading files from fs
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier(fs afero.Fs) *checksumVerifier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &checksumVerifier{fs: fs}
}

// ChecksumBytes returns the lowercase hex SHA-256 of data
func (v *checksumVerifier) ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum verifies a file's SHA-256 checksum. expectedSum is compared case-insensitively
// and may carry a trailing file name as printed by shasum.
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	expected := strings.ToLower(strings.TrimSpace(expectedSum))
	if fields := strings.Fields(expected); len(fields) > 0 {
		expected = fields[0]
	}
	if len(expected) != sha256.Size*2 {
		return fmt.Errorf("invalid SHA-256 checksum %q", expectedSum)
	}

	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	if actualSum != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actualSum)
	}

	return nil
}

// CalculateChecksum calculates the SHA-256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	f, err := v.fs.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
