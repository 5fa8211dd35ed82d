package clean

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pkg", "A.class"))
	writeFile(t, filepath.Join(dir, "pkg", "B.class"))
	writeFile(t, filepath.Join(dir, "pkg", "A.java"))

	removed, err := Remove(dir, "pkg/*.class")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(removed))
	}
	if _, err := os.Stat(filepath.Join(dir, "pkg", "A.java")); err != nil {
		t.Fatalf("source file must survive clean: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pkg", "A.class")); !os.IsNotExist(err) {
		t.Fatalf("class file must be removed")
	}
}

func TestRemoveToleratesAbsence(t *testing.T) {
	dir := t.TempDir()

	removed, err := Remove(dir, "pkg/*.class")
	if err != nil {
		t.Fatalf("remove with no matches must succeed: %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("expected no removals, got %v", removed)
	}

	// Running the clean twice is still fine.
	if _, err := Remove(dir, "pkg/*.class"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pkg", "B.java"))
	writeFile(t, filepath.Join(dir, "pkg", "A.java"))

	sources, err := Expand(dir, "pkg/*.java")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %v", sources)
	}
	for _, src := range sources {
		if filepath.IsAbs(src) {
			t.Fatalf("sources must be relative to dir: %s", src)
		}
	}
}

func TestExpandRequiresMatches(t *testing.T) {
	if _, err := Expand(t.TempDir(), "pkg/*.java"); err == nil {
		t.Fatalf("expected error for empty source set")
	}
}
