package gateways

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/gpg"
)

// KeyringSecurityProvider builds security gateways from key files on disk
type KeyringSecurityProvider struct {
	sourceDir string
	getenv    func(string) string
	logger    interfaces.Logger
}

// NewKeyringSecurityProvider resolves relative key paths against sourceDir
// and reads key passphrases from the environment
func NewKeyringSecurityProvider(sourceDir string, logger interfaces.Logger) *KeyringSecurityProvider {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &KeyringSecurityProvider{
		sourceDir: sourceDir,
		getenv:    os.Getenv,
		logger:    logger,
	}
}

// ForSigning returns a gateway holding the manifest's signing key, or a
// checksum-only gateway when signing is not configured
func (p *KeyringSecurityProvider) ForSigning(manifest *entities.ReleaseManifest) (gateways.SecurityGateway, error) {
	config := SecurityGatewayConfig{Logger: p.logger}
	if !manifest.Signing.Enabled() {
		return NewCompositeSecurityGateway(config), nil
	}

	var passphrase []byte
	if env := manifest.Signing.PassphraseEnv; env != "" {
		passphrase = []byte(p.getenv(env))
	}

	signer, err := gpg.NewSignerFromFile(p.resolve(manifest.Signing.KeyFile), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	config.Signer = signer
	return NewCompositeSecurityGateway(config), nil
}

// ForVerification returns a gateway trusting the keys in publicKeyPath.
// An empty path yields a checksum-only gateway.
func (p *KeyringSecurityProvider) ForVerification(publicKeyPath string) (gateways.SecurityGateway, error) {
	config := SecurityGatewayConfig{Logger: p.logger}
	if publicKeyPath == "" {
		return NewCompositeSecurityGateway(config), nil
	}

	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFromFile(p.resolve(publicKeyPath)); err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}
	config.Verifier = verifier
	return NewCompositeSecurityGateway(config), nil
}

func (p *KeyringSecurityProvider) resolve(path string) string {
	if filepath.IsAbs(path) || p.sourceDir == "" {
		return path
	}
	return filepath.Join(p.sourceDir, path)
}
