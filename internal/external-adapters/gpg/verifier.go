// Package gpg provides OpenPGP detached-signature verification for downloaded app archives.
package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE---"

	// Detached signatures are well under 1KB; anything far larger is not one
	maxSignatureSize = 64 * 1024
)

// ErrNoKeys is returned when verification is attempted with an empty keyring
var ErrNoKeys = errors.New("no OpenPGP keys imported")

// Verifier implements OpenPGP signature verification using ProtonMail's go-crypto
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyRing reads armored or binary public keys from r
func (v *Verifier) ImportKeyRing(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Try reading as binary
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// ImportKeyFromFile imports public keys from an armored or binary keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	return v.ImportKeyRing(f)
}

// VerifyDetached verifies an armored or binary detached signature over data
func (v *Verifier) VerifyDetached(ctx context.Context, data, signature []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(v.keyring) == 0 {
		return ErrNoKeys
	}

	// Security: Basic format validation
	if len(signature) < 10 {
		return fmt.Errorf("signature too small to be a valid OpenPGP signature")
	}
	if len(signature) > maxSignatureSize {
		return fmt.Errorf("signature of %d bytes exceeds the %d byte limit", len(signature), maxSignatureSize)
	}

	signed := bytes.NewReader(data)
	sig := bytes.NewReader(signature)

	var err error
	if bytes.HasPrefix(bytes.TrimSpace(signature), []byte(armoredSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}
