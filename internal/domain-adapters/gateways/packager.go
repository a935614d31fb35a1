package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// Archive formats
const (
	ArchiveNone  = ""
	ArchiveZip   = "zip"
	ArchiveTarGz = "tar.gz"
)

// Packager stages compiled plugins into their release directory and archives them
type Packager struct{}

// NewPackager creates a new packager
func NewPackager() *Packager {
	return &Packager{}
}

// Stage fills <outputDir>/<name>/ with exactly the compiled binary and the
// manifest files (resolved against sourceDir). Anything else already in the
// directory is removed.
func (p *Packager) Stage(
	ctx context.Context,
	manifest *entities.ReleaseManifest,
	binaryPath, sourceDir, outputDir string,
) (*entities.Artifact, error) {
	if outputDir == "" {
		outputDir = "dist"
	}
	stageDir := filepath.Join(outputDir, manifest.Name)

	if err := os.MkdirAll(stageDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	wanted := make(map[string]string, len(manifest.Files)+1)
	wanted[manifest.Binary] = binaryPath
	for _, f := range manifest.Files {
		src := f
		if !filepath.IsAbs(src) {
			src = filepath.Join(sourceDir, f)
		}
		wanted[filepath.Base(f)] = src
	}

	// Remove stale entries from a previous run
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}
	for _, entry := range entries {
		if _, keep := wanted[entry.Name()]; keep && entry.Type().IsRegular() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(stageDir, entry.Name())); err != nil {
			return nil, fmt.Errorf("failed to remove stale entry %s: %w", entry.Name(), err)
		}
	}

	for _, name := range manifest.StagedFiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := copyFile(wanted[name], filepath.Join(stageDir, name)); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}

	return &entities.Artifact{
		Name:     manifest.Name,
		Platform: manifest.Target.Platform(),
		Path:     stageDir,
		Type:     entities.ArtifactDirectory,
	}, nil
}

// Archive packs a staged directory into <outputDir>/<name>.<format>. The
// archive holds a single top-level directory named after the artifact.
func (p *Packager) Archive(
	_ context.Context,
	manifest *entities.ReleaseManifest,
	stageDir, outputDir string,
) (*entities.Artifact, error) {
	var (
		archivePath string
		err         error
	)

	switch manifest.Archive {
	case ArchiveZip:
		archivePath = filepath.Join(outputDir, manifest.Name+".zip")
		err = p.createZip(stageDir, archivePath, manifest.Name)
	case ArchiveTarGz:
		archivePath = filepath.Join(outputDir, manifest.Name+".tar.gz")
		err = p.createTarball(stageDir, archivePath, manifest.Name)
	default:
		return nil, fmt.Errorf("unsupported archive format %q", manifest.Archive)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s archive: %w", manifest.Archive, err)
	}

	return &entities.Artifact{
		Name:     manifest.Name,
		Platform: manifest.Target.Platform(),
		Path:     archivePath,
		Type:     entities.ArtifactArchive,
	}, nil
}

// createTarball creates a gzipped tar archive from a source directory
func (p *Packager) createTarball(sourceDir, tarballPath, prefix string) error {
	if err := os.MkdirAll(filepath.Dir(tarballPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: File path tarballPath is constructed for package output
	file, err := os.Create(tarballPath)
	if err != nil {
		return fmt.Errorf("failed to create tarball file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzipWriter)

	err = walkRelease(sourceDir, prefix, func(name string, info os.FileInfo, path string) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}
		if info.IsDir() {
			return nil
		}
		return appendFile(tarWriter, path)
	})
	if err != nil {
		return err
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// createZip creates a zip archive from a source directory
func (p *Packager) createZip(sourceDir, zipPath, prefix string) error {
	if err := os.MkdirAll(filepath.Dir(zipPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: File path zipPath is constructed for package output
	file, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	zipWriter := zip.NewWriter(file)

	err = walkRelease(sourceDir, prefix, func(name string, info os.FileInfo, path string) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create zip header: %w", err)
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
			_, err = zipWriter.CreateHeader(header)
			return err
		}

		header.Method = zip.Deflate
		w, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to write zip header: %w", err)
		}
		return appendFile(w, path)
	})
	if err != nil {
		return err
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return nil
}

// walkRelease visits sourceDir and everything below it, naming entries
// "<prefix>/<relative path>" with forward slashes. Symlinks are skipped.
func walkRelease(sourceDir, prefix string, visit func(name string, info os.FileInfo, path string) error) error {
	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		name := prefix
		if relPath != "." {
			name = prefix + "/" + filepath.ToSlash(relPath)
		}
		return visit(name, info, path)
	})
}

func appendFile(w io.Writer, path string) error {
	//nolint:gosec // G304: File path from filepath.Walk for packaging
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to write file to archive: %w", err)
	}
	return nil
}

// copyFile copies src to dst through a temporary file in dst's directory
func copyFile(src, dst string) error {
	//nolint:gosec // G304: source paths come from the release manifest
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".stage-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	//nolint:gosec // G302: release files are meant to be world readable
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}
