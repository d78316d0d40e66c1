package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReaderLocalSource(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "snap.dat"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := Reader(context.Background(), src, "snap.dat", false)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	buf := make([]byte, 5)
	if _, err := rc.Read(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "hello" {
		t.Fatalf("read %q, want %q", buf, "hello")
	}
}

func TestStoreSkipsExistingFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	for _, ext := range []string{".dat", ".idx", ".dsc", ".hsh"} {
		if err := os.WriteFile(filepath.Join(src, "snap"+ext), []byte(ext), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Pre-populate one file locally with different content; Store must not
	// overwrite it.
	if err := os.WriteFile(filepath.Join(dst, "snap.dat"), []byte("local"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Store(context.Background(), src, dst, "snap"); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "snap.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "local" {
		t.Fatalf(".dat was overwritten: got %q", got)
	}
	for _, ext := range []string{".idx", ".dsc", ".hsh"} {
		got, err := os.ReadFile(filepath.Join(dst, "snap"+ext))
		if err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
		if string(got) != ext {
			t.Fatalf("%s: got %q, want %q", ext, got, ext)
		}
	}
}
