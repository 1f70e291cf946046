package runtimepath

import (
	"path/filepath"
	"testing"
)

func TestDir_HonorsXDGRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/9999")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("dir: %v", err)
	}
	if dir != "/run/user/9999" {
		t.Fatalf("expected the XDG runtime dir, got %q", dir)
	}
}

func TestSocketPath_LivesInRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	path, err := SocketPath()
	if err != nil {
		t.Fatalf("socket path: %v", err)
	}
	if filepath.Base(path) != "xarrange.sock" {
		t.Fatalf("expected an xarrange.sock socket, got %q", path)
	}
}
