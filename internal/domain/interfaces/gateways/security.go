package gateways

import (
	"context"
)

// SecurityGateway defines checksum and signature operations on release files
type SecurityGateway interface {
	// Checksums
	CalculateChecksum(filePath string) (string, error)
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
	WriteChecksumFile(ctx context.Context, baseDir string, files []string, outPath string) error
	VerifyChecksumFile(ctx context.Context, baseDir, sumsPath string) error

	// Signatures
	SignFile(ctx context.Context, filePath, sigPath string) error
	VerifySignature(ctx context.Context, filePath, sigPath string) error
}
