package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chip8.log")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Printf("hello %d", 42)

	l2, err := New(path)
	if err != nil {
		t.Fatalf("New (append): %v", err)
	}
	l2.Printf("again")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"chip8 ", "Initializing", "hello 42", "again"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "Initializing"); n != 2 {
		t.Errorf("expected the file to be appended to, got %d headers", n)
	}
}

func TestNewStderr(t *testing.T) {
	l, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Writer() != os.Stderr {
		t.Error("expected stderr logger")
	}
}

func TestNewBadPath(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing", "chip8.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}
