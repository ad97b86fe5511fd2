package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "nested", "a.txt")
	if err := SafeWriteFile(p, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content: %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestSafeWriteKeepsOriginalOnError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(p, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := SafeWrite(p, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "original" {
		t.Fatalf("original overwritten: %q", b)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected json: %s", b)
	}
}
