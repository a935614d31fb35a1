package gpg

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// Signer creates armored detached signatures with one private key
type Signer struct {
	entity *openpgp.Entity
}

// NewSigner wraps an entity that holds a decrypted private key
func NewSigner(entity *openpgp.Entity) (*Signer, error) {
	if entity == nil || entity.PrivateKey == nil {
		return nil, fmt.Errorf("entity has no private key")
	}
	if entity.PrivateKey.Encrypted {
		return nil, fmt.Errorf("private key is encrypted")
	}
	return &Signer{entity: entity}, nil
}

// NewSignerFromFile loads the first private key of keyPath, decrypting it
// with passphrase when it is protected
func NewSignerFromFile(keyPath string, passphrase []byte) (*Signer, error) {
	//nolint:gosec // G304: keyPath comes from the release manifest
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := readKeyRing(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	var entity *openpgp.Entity
	for _, e := range entities {
		if e.PrivateKey != nil {
			entity = e
			break
		}
	}
	if entity == nil {
		return nil, fmt.Errorf("no private key found in %s", keyPath)
	}

	if err := decryptEntity(entity, passphrase); err != nil {
		return nil, err
	}

	return NewSigner(entity)
}

// decryptEntity unlocks the primary key and every encrypted subkey
func decryptEntity(entity *openpgp.Entity, passphrase []byte) error {
	if !entity.PrivateKey.Encrypted {
		return nil
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("private key is encrypted and no passphrase was given")
	}
	if err := entity.DecryptPrivateKeys(passphrase); err != nil {
		return fmt.Errorf("failed to decrypt private key: %w", err)
	}
	return nil
}

// Fingerprint returns the upper case hex fingerprint of the signing key
func (s *Signer) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// Sign writes an armored detached signature of message to w
func (s *Signer) Sign(w io.Writer, message io.Reader) error {
	if err := openpgp.ArmoredDetachSign(w, s.entity, message, nil); err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	return nil
}

// SignFile writes an armored detached signature of filePath to sigPath
func (s *Signer) SignFile(filePath, sigPath string) error {
	//nolint:gosec // G304: filePath is produced by the release pipeline
	in, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: sigPath is produced by the release pipeline
	out, err := os.Create(sigPath)
	if err != nil {
		return fmt.Errorf("failed to create signature file: %w", err)
	}

	if err := s.Sign(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(sigPath)
		return err
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write signature: %w", err)
	}
	return out.Close()
}

// ExportPublicKey writes the armored public key of the signer to w
func (s *Signer) ExportPublicKey(w io.Writer) error {
	aw, err := armor.Encode(w, openpgp.PublicKeyType, nil)
	if err != nil {
		return fmt.Errorf("failed to start armor: %w", err)
	}
	if err := s.entity.Serialize(aw); err != nil {
		_ = aw.Close()
		return fmt.Errorf("failed to serialize public key: %w", err)
	}
	return aw.Close()
}
