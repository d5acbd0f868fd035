package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDataDir(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "data", "nested", "island.db")
	if err := ensureDataDir(db); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filepath.Dir(db)); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	if err := ensureDataDir("island.db"); err != nil {
		t.Errorf("bare file name: %v", err)
	}

	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := ensureDataDir(filepath.Join(blocker, "island.db")); err == nil {
		t.Error("directory under a regular file reported success")
	}
}
