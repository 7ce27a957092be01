package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/nativescan/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external OpenPGP adapter to implement the SignatureVerifier gateway
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new signature verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// ImportKeyFromFile imports public keys from a local keyring file
func (g *gpgVerifier) ImportKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import OpenPGP key from file: %w", err)
	}
	return nil
}

// VerifyDetachedSignature verifies a detached signature over the archive bytes
func (g *gpgVerifier) VerifyDetachedSignature(ctx context.Context, data, signature []byte) error {
	if err := g.verifier.VerifyDetached(ctx, data, signature); err != nil {
		return fmt.Errorf("OpenPGP signature verification failed: %w", err)
	}
	return nil
}

// KeyringSize returns the number of keys loaded
func (g *gpgVerifier) KeyringSize() int {
	return g.verifier.GetKeyringSize()
}
