package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ochairo/nativescan/internal/domain-adapters/gateways"
)

type verifyOptions struct {
	sha256    string
	signature string
	keyring   string
}

func newVerifyCmd(env *environment) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check an archive's SHA-256 checksum and OpenPGP signature",
		Long: `Print the SHA-256 of an archive and optionally check it against an expected
checksum (hex or a shasum line) and a detached OpenPGP signature.

Examples:
  nativescan verify Demo.zip
  nativescan verify Demo.zip --sha256 "$(cat Demo.zip.sha256)"
  nativescan verify Demo.zip --signature Demo.zip.asc --keyring vendor.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runVerify(ctx, env, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.sha256, "sha256", "", "expected SHA-256 checksum")
	cmd.Flags().StringVar(&opts.signature, "signature", "", "detached OpenPGP signature (armored or binary)")
	cmd.Flags().StringVar(&opts.keyring, "keyring", "", "public keyring (armored or binary)")

	return cmd
}

func runVerify(ctx context.Context, env *environment, opts *verifyOptions, path string) error {
	if (opts.signature == "") != (opts.keyring == "") {
		return fmt.Errorf("--signature and --keyring must be used together")
	}

	checksums := gateways.NewChecksumVerifier(env.fs)
	sum, err := checksums.CalculateChecksum(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "SHA-256  %s  %s\n", sum, filepath.Base(path))

	if opts.sha256 != "" {
		if err := checksums.VerifyChecksum(ctx, path, opts.sha256); err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, "✅ Checksum verified")
	}

	if opts.signature != "" {
		data, err := afero.ReadFile(env.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		keys, err := verifySignature(ctx, env, data, opts.signature, opts.keyring)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "✅ Signature verified (%s in keyring)\n", english.Plural(keys, "key", ""))
	}
	return nil
}

// verifySignature checks a detached OpenPGP signature over data and returns the keyring size
func verifySignature(ctx context.Context, env *environment, data []byte, signaturePath, keyringPath string) (int, error) {
	signature, err := afero.ReadFile(env.fs, signaturePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read signature: %w", err)
	}

	verifier := gateways.NewGPGVerifier()
	if err := verifier.ImportKeyFromFile(keyringPath); err != nil {
		return 0, err
	}
	keys := verifier.KeyringSize()
	if keys == 0 {
		return 0, fmt.Errorf("keyring %s contains no public keys", keyringPath)
	}

	if err := verifier.VerifyDetachedSignature(ctx, data, signature); err != nil {
		return 0, err
	}
	return keys, nil
}
