package waitdep

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReady(t *testing.T) {
	dir := t.TempDir()
	if Ready(dir, "base") {
		t.Fatal("Ready reported true with no files present")
	}
	for _, ext := range []string{".dat", ".idx", ".dsc", ".hsh"} {
		if err := os.WriteFile(filepath.Join(dir, "base"+ext), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if !Ready(dir, "base") {
		t.Fatal("Ready reported false once all four files exist")
	}
}

func TestReadyRequiresAllFourFiles(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".dat", ".idx", ".dsc"} {
		if err := os.WriteFile(filepath.Join(dir, "base"+ext), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if Ready(dir, "base") {
		t.Fatal("Ready reported true with .hsh missing")
	}
}

func TestIsMountEvent(t *testing.T) {
	cases := []struct {
		action, subsystem, devname string
		want                       bool
	}{
		{"add", "block", "sda1", true},
		{"change", "block", "sda1", false},
		{"add", "block", "dm-0", false},
		{"change", "block", "dm-0", true},
		{"add", "net", "eth0", false},
	}
	for _, c := range cases {
		if got := isMountEvent(c.action, c.subsystem, c.devname); got != c.want {
			t.Errorf("isMountEvent(%q,%q,%q) = %v, want %v", c.action, c.subsystem, c.devname, got, c.want)
		}
	}
}
