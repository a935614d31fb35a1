package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

func newTestEntity(t *testing.T, name string) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity(name, "test", name+"@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}
	return entity
}

func writePublicKey(t *testing.T, dir string, signer *Signer) string {
	t.Helper()
	var buf bytes.Buffer
	if err := signer.ExportPublicKey(&buf); err != nil {
		t.Fatalf("ExportPublicKey() error = %v", err)
	}
	path := filepath.Join(dir, "release.pub.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePrivateKey(t *testing.T, dir string, entity *openpgp.Entity, passphrase []byte) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(passphrase) > 0 {
		if err := entity.EncryptPrivateKeys(passphrase, nil); err != nil {
			t.Fatalf("EncryptPrivateKeys() error = %v", err)
		}
		err = entity.SerializePrivateWithoutSigning(w, nil)
	} else {
		err = entity.SerializePrivate(w, nil)
	}
	if err != nil {
		t.Fatalf("serialize private key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "release.sec.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSignAndVerify(t *testing.T) {
	dir := t.TempDir()
	signer, err := NewSigner(newTestEntity(t, "release"))
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	sums := writeFile(t, dir, "SHA256SUMS", "abc  resizedpngmini.dll\n")
	sig := sums + ".asc"
	if err := signer.SignFile(sums, sig); err != nil {
		t.Fatalf("SignFile() error = %v", err)
	}

	data, err := os.ReadFile(sig)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), armoredSignaturePrefix) {
		t.Errorf("signature is not armored:\n%s", data)
	}

	v := NewVerifier()
	if err := v.ImportKeyFromFile(writePublicKey(t, dir, signer)); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}
	if err := v.VerifySignatureFromFile(sums, sig); err != nil {
		t.Errorf("VerifySignatureFromFile() error = %v", err)
	}

	t.Run("tampered file", func(t *testing.T) {
		tampered := writeFile(t, dir, "SHA256SUMS.tampered", "abd  resizedpngmini.dll\n")
		if err := v.VerifySignatureFromFile(tampered, sig); err == nil {
			t.Error("VerifySignatureFromFile() should fail for modified data")
		}
	})

	t.Run("other key", func(t *testing.T) {
		other := NewVerifier()
		other.ImportEntities(newTestEntity(t, "other"))
		if err := other.VerifySignatureFromFile(sums, sig); err == nil {
			t.Error("VerifySignatureFromFile() should fail with an unrelated key")
		}
	})
}

func TestVerifier_BinarySignature(t *testing.T) {
	dir := t.TempDir()
	entity := newTestEntity(t, "release")
	data := writeFile(t, dir, "SHA256SUMS", "content\n")

	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, entity, strings.NewReader("content\n"), nil); err != nil {
		t.Fatal(err)
	}
	sigPath := writeFile(t, dir, "SHA256SUMS.sig", sig.String())

	v := NewVerifier()
	v.ImportEntities(entity)
	if err := v.VerifySignatureFromFile(data, sigPath); err != nil {
		t.Errorf("VerifySignatureFromFile() error = %v", err)
	}
}

func TestVerifier_Errors(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data", "x")

	t.Run("empty keyring", func(t *testing.T) {
		err := NewVerifier().VerifySignatureFromFile(data, data)
		if err == nil || !strings.Contains(err.Error(), "no OpenPGP keys") {
			t.Errorf("error = %v, want empty keyring error", err)
		}
	})

	v := NewVerifier()
	v.ImportEntities(newTestEntity(t, "release"))

	t.Run("missing signature", func(t *testing.T) {
		if err := v.VerifySignatureFromFile(data, filepath.Join(dir, "missing.asc")); err == nil {
			t.Error("expected error for missing signature file")
		}
	})

	t.Run("tiny signature", func(t *testing.T) {
		if err := v.VerifySignatureFromFile(data, writeFile(t, dir, "tiny.asc", "sig")); err == nil {
			t.Error("expected error for truncated signature")
		}
	})

	t.Run("oversized signature", func(t *testing.T) {
		big := writeFile(t, dir, "big.asc", strings.Repeat("A", maxSignatureSize+1))
		if err := v.VerifySignatureFromFile(data, big); err == nil || !strings.Contains(err.Error(), "exceeds") {
			t.Errorf("error = %v, want size error", err)
		}
	})
}

func TestVerifier_ImportKeyFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("nonexistent file", func(t *testing.T) {
		err := NewVerifier().ImportKeyFromFile(filepath.Join(dir, "missing.asc"))
		if err == nil || !strings.Contains(err.Error(), "failed to open key file") {
			t.Errorf("error = %v, want open error", err)
		}
	})

	t.Run("not a key", func(t *testing.T) {
		err := NewVerifier().ImportKeyFromFile(writeFile(t, dir, "junk.asc", "not a gpg key"))
		if err == nil || !strings.Contains(err.Error(), "failed to read key") {
			t.Errorf("error = %v, want read error", err)
		}
	})
}

func TestVerifier_KeyringOperations(t *testing.T) {
	v := NewVerifier()
	if size := v.GetKeyringSize(); size != 0 {
		t.Errorf("Initial keyring size = %d, want 0", size)
	}

	v.ImportEntities(newTestEntity(t, "a"), newTestEntity(t, "b"))
	if size := v.GetKeyringSize(); size != 2 {
		t.Errorf("keyring size = %d, want 2", size)
	}

	v.ClearKeyring()
	if size := v.GetKeyringSize(); size != 0 {
		t.Errorf("keyring size after clear = %d, want 0", size)
	}
}

func TestNewSignerFromFile(t *testing.T) {
	t.Run("plain key", func(t *testing.T) {
		dir := t.TempDir()
		entity := newTestEntity(t, "release")
		signer, err := NewSignerFromFile(writePrivateKey(t, dir, entity, nil), nil)
		if err != nil {
			t.Fatalf("NewSignerFromFile() error = %v", err)
		}
		if signer.Fingerprint() != strings.ToUpper(signer.Fingerprint()) || len(signer.Fingerprint()) != 40 {
			t.Errorf("Fingerprint() = %q", signer.Fingerprint())
		}
	})

	t.Run("protected key", func(t *testing.T) {
		dir := t.TempDir()
		keyPath := writePrivateKey(t, dir, newTestEntity(t, "release"), []byte("hunter2"))

		if _, err := NewSignerFromFile(keyPath, nil); err == nil {
			t.Error("NewSignerFromFile() should require a passphrase")
		}
		if _, err := NewSignerFromFile(keyPath, []byte("wrong")); err == nil {
			t.Error("NewSignerFromFile() should reject a wrong passphrase")
		}

		signer, err := NewSignerFromFile(keyPath, []byte("hunter2"))
		if err != nil {
			t.Fatalf("NewSignerFromFile() error = %v", err)
		}
		var sig bytes.Buffer
		if err := signer.Sign(&sig, strings.NewReader("payload")); err != nil {
			t.Errorf("Sign() error = %v", err)
		}
	})

	t.Run("public key only", func(t *testing.T) {
		dir := t.TempDir()
		signer, err := NewSigner(newTestEntity(t, "release"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := NewSignerFromFile(writePublicKey(t, dir, signer), nil); err == nil {
			t.Error("NewSignerFromFile() should fail without a private key")
		}
	})
}
