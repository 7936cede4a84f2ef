package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// newTestFS создаёт хранилище в t.TempDir с заданными файлами.
func newTestFS(t *testing.T, files map[string]string) *FS {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	fs, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFS_OpenRead(t *testing.T) {
	fs := newTestFS(t, map[string]string{
		"incoming/run1/manifest.json": `["a"]`,
	})

	rc, err := fs.Open(context.Background(), "/incoming/run1/manifest.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != `["a"]` {
		t.Errorf("unexpected content: %s", data)
	}
}

func TestFS_CreateWritesParents(t *testing.T) {
	fs := newTestFS(t, nil)

	wc, err := fs.Create(context.Background(), "/run1/reads/L1/out.bam")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := wc.Write([]byte("data")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entry, err := fs.Stat(context.Background(), "/run1/reads/L1/out.bam")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if entry.Size != 4 {
		t.Errorf("expected size 4, got %d", entry.Size)
	}
}

func TestFS_ListRecursive(t *testing.T) {
	fs := newTestFS(t, map[string]string{
		"run1/reads/L1/s1.bam":     "aa",
		"run1/reads/L1/s2.bam":     "bbb",
		"run1/reads/L2/s1.bam":     "c",
		"run1/reads/barcodes.json": "{}",
		"run2/reads/L1/other.bam":  "dd",
	})

	entries, err := fs.List(context.Background(), "/run1/reads")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	// Рекурсивно, только под префиксом, в порядке путей.
	want := []string{
		"/run1/reads/L1/s1.bam",
		"/run1/reads/L1/s2.bam",
		"/run1/reads/L2/s1.bam",
		"/run1/reads/barcodes.json",
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, w := range want {
		if entries[i].Path != w {
			t.Errorf("entry %d: expected %s, got %s", i, w, entries[i].Path)
		}
	}
}

func TestFS_ListMissingPrefix(t *testing.T) {
	fs := newTestFS(t, nil)

	entries, err := fs.List(context.Background(), "/nothing/here")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty listing, got %+v", entries)
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	fs := newTestFS(t, nil)

	_, err := fs.Open(context.Background(), "../outside")
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}
