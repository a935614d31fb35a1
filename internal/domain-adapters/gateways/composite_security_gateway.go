package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/gpg"
)

// compositeSecurityGateway implements the SecurityGateway interface by composing
// the checksum verifier with the OpenPGP adapters
type compositeSecurityGateway struct {
	checksumVerifier *checksumVerifier
	signer           *gpg.Signer
	verifier         *gpg.Verifier
	logger           interfaces.Logger
}

// SecurityGatewayConfig holds the optional signing and verification keys
type SecurityGatewayConfig struct {
	Signer   *gpg.Signer
	Verifier *gpg.Verifier
	Logger   interfaces.Logger
}

// NewCompositeSecurityGateway creates a security gateway. Signing and
// signature verification fail when the matching key is not configured.
func NewCompositeSecurityGateway(config SecurityGatewayConfig) gateways.SecurityGateway {
	logger := config.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &compositeSecurityGateway{
		checksumVerifier: NewChecksumVerifier(),
		signer:           config.Signer,
		verifier:         config.Verifier,
		logger:           logger,
	}
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (c *compositeSecurityGateway) CalculateChecksum(filePath string) (string, error) {
	return c.checksumVerifier.CalculateChecksum(filePath)
}

// VerifyChecksum verifies a file's SHA256 checksum
func (c *compositeSecurityGateway) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	return c.checksumVerifier.VerifyChecksum(ctx, filePath, expectedSum)
}

// WriteChecksumFile writes a SHA256SUMS file
func (c *compositeSecurityGateway) WriteChecksumFile(ctx context.Context, baseDir string, files []string, outPath string) error {
	c.logger.Debug("writing checksums", interfaces.F("path", outPath), interfaces.F("files", len(files)))
	return c.checksumVerifier.WriteChecksumFile(ctx, baseDir, files, outPath)
}

// VerifyChecksumFile checks every entry of a SHA256SUMS file
func (c *compositeSecurityGateway) VerifyChecksumFile(ctx context.Context, baseDir, sumsPath string) error {
	c.logger.Debug("verifying checksums", interfaces.F("path", sumsPath))
	return c.checksumVerifier.VerifyChecksumFile(ctx, baseDir, sumsPath)
}

// SignFile writes an armored detached signature
func (c *compositeSecurityGateway) SignFile(ctx context.Context, filePath, sigPath string) error {
	if c.signer == nil {
		return fmt.Errorf("no signing key configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("signing",
		interfaces.F("file", filePath),
		interfaces.F("fingerprint", c.signer.Fingerprint()))
	return c.signer.SignFile(filePath, sigPath)
}

// VerifySignature verifies a detached signature against the imported keys
func (c *compositeSecurityGateway) VerifySignature(ctx context.Context, filePath, sigPath string) error {
	if c.verifier == nil || c.verifier.GetKeyringSize() == 0 {
		return fmt.Errorf("no public key configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("verifying signature",
		interfaces.F("file", filePath),
		interfaces.F("signature", sigPath))
	return c.verifier.VerifySignatureFromFile(filePath, sigPath)
}
