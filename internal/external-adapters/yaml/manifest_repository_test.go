package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
}

func TestManifestRepository_GetManifest_Success(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "saori-resized-png-mini.yml", "name: saori-resized-png-mini\nbinary: resizedpngmini.dll\n")

	repo := NewManifestRepository(tmpDir, nil)
	manifest, err := repo.GetManifest(context.Background(), "saori-resized-png-mini")
	if err != nil {
		t.Fatalf("GetManifest() error = %v", err)
	}

	if manifest.Binary != "resizedpngmini.dll" {
		t.Errorf("GetManifest() binary = %v, want resizedpngmini.dll", manifest.Binary)
	}
}

func TestManifestRepository_GetManifest_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "renamed.yml", "name: other\nbinary: other.dll\n")

	repo := NewManifestRepository(tmpDir, nil)

	for _, name := range []string{"nonexistent", "renamed", "", "../renamed"} {
		if _, err := repo.GetManifest(context.Background(), name); err == nil {
			t.Errorf("GetManifest(%q) should return error", name)
		}
	}
}

func TestManifestRepository_ListManifests(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "a.yml", "name: a\nbinary: a.dll\n")
	writeManifest(t, tmpDir, "b.yml", "name: b\nbinary: b.dll\n")
	writeManifest(t, tmpDir, "broken.yml", "binary: [\n")
	writeManifest(t, tmpDir, "notes.txt", "not a manifest")
	if err := os.Mkdir(filepath.Join(tmpDir, "dir.yml"), 0750); err != nil {
		t.Fatal(err)
	}

	repo := NewManifestRepository(tmpDir, nil)
	manifests, err := repo.ListManifests(context.Background())
	if err != nil {
		t.Fatalf("ListManifests() error = %v", err)
	}

	if len(manifests) != 2 || manifests[0].Name != "a" || manifests[1].Name != "b" {
		t.Errorf("ListManifests() = %d manifests, want a and b", len(manifests))
	}

	if _, err := NewManifestRepository(filepath.Join(tmpDir, "missing"), nil).ListManifests(context.Background()); err == nil {
		t.Error("ListManifests() should fail for a missing directory")
	}
}
