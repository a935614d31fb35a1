// Package gpg provides OpenPGP signing and signature verification for release files.
package gpg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// armoredSignaturePrefix marks an ASCII armored signature
const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

// maxSignatureSize bounds signature files (detached signatures are < 1KB)
const maxSignatureSize = 64 * 1024

// Verifier implements detached signature verification using ProtonMail's go-crypto
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

// ImportKeyFromFile imports public keys from an armored or binary key file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := readKeyRing(data)
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// ImportEntities adds already parsed keys to the keyring
func (v *Verifier) ImportEntities(entities ...*openpgp.Entity) {
	v.keyring = append(v.keyring, entities...)
}

// VerifySignatureFromFile verifies a detached signature stored in sigPath
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no OpenPGP keys imported, import a public key first")
	}

	//nolint:gosec // G304: sigPath is user-provided for signature verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	sigData, err := io.ReadAll(io.LimitReader(sigFile, maxSignatureSize+1))
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	if len(sigData) > maxSignatureSize {
		return fmt.Errorf("signature file exceeds %d bytes", maxSignatureSize)
	}
	if len(sigData) < 10 {
		return fmt.Errorf("signature file too small to be a valid signature")
	}

	//nolint:gosec // G304: filePath is user-provided for signature verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	data := bufio.NewReader(dataFile)
	if bytes.HasPrefix(bytes.TrimSpace(sigData), []byte(armoredSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
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

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}

// readKeyRing parses armored key data, falling back to the binary format
func readKeyRing(data []byte) (openpgp.EntityList, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found")
	}
	return entities, nil
}
