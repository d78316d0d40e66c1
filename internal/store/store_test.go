package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func forceDescriptor(dir, base string, d descriptor) error {
	f, err := os.Create(filepath.Join(dir, base+".dsc"))
	if err != nil {
		return err
	}
	defer f.Close()
	return writeDescriptor(f, d)
}

func block(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func TestCreateAppendReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Create(dir, "a", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	blocks := [][]byte{block('a', 16), block('b', 16), block('a', 16), block('c', 16)}
	for _, b := range blocks {
		if err := s.AppendBlock(b); err != nil {
			t.Fatalf("AppendBlock: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(dir, "a", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	n, err := r.GetNumberOfBlocks()
	if err != nil {
		t.Fatalf("GetNumberOfBlocks: %v", err)
	}
	if n != int64(len(blocks)) {
		t.Fatalf("GetNumberOfBlocks = %d, want %d", n, len(blocks))
	}

	buf := make([]byte, 16)
	for i, want := range blocks {
		if err := r.ReadBlock(int64(i), buf); err != nil {
			t.Fatalf("ReadBlock(%d): %v", i, err)
		}
		if !bytes.Equal(buf, want) {
			t.Fatalf("ReadBlock(%d) = %x, want %x", i, buf, want)
		}
	}
}

func TestAppendDoesNotDedupeWithinStore(t *testing.T) {
	dir := t.TempDir()

	s, err := Create(dir, "a", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Close()

	if err := s.AppendBlock(block('x', 16)); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendBlock(block('x', 16)); err != nil {
		t.Fatal(err)
	}

	stats := s.GetWriteStats()
	if stats.New != 2 {
		t.Fatalf("within a single store there is no dependency to dedup against, want New=2, got %+v", stats)
	}
}

func TestAppendDedupesAgainstDependency(t *testing.T) {
	dir := t.TempDir()

	base, err := Create(dir, "base", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatalf("Create base: %v", err)
	}
	for _, b := range [][]byte{block('a', 16), block('b', 16), block('c', 16)} {
		if err := base.AppendBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := base.Close(); err != nil {
		t.Fatal(err)
	}

	child, err := Create(dir, "child", "base", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}
	defer child.Close()

	if err := child.AppendBlock(block('a', 16)); err != nil {
		t.Fatal(err)
	}
	if err := child.AppendBlock(block('z', 16)); err != nil {
		t.Fatal(err)
	}

	stats := child.GetWriteStats()
	if stats.Reused != 1 {
		t.Fatalf("want Reused=1 (the 'a' block matches base[0]), got %+v", stats)
	}
	if stats.New != 1 {
		t.Fatalf("want New=1 (the 'z' block), got %+v", stats)
	}

	buf := make([]byte, 16)
	if err := child.ReadBlock(0, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, block('a', 16)) {
		t.Fatalf("ReadBlock(0) = %x, want all-'a'", buf)
	}
}

func TestAppendRejectsWrongBlockSize(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "a", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	err = s.AppendBlock(block('a', 8))
	var pe *PreconditionError
	if !asPreconditionError(err, &pe) {
		t.Fatalf("AppendBlock with wrong size: got %v, want *PreconditionError", err)
	}
}

func asPreconditionError(err error, target **PreconditionError) bool {
	pe, ok := err.(*PreconditionError)
	if ok {
		*target = pe
	}
	return ok
}

func TestGetNumberOfBlocksRecoversPartialLastGroup(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "a", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}

	// Three blocks into a group of four: the last index record is partial.
	for i := 0; i < 3; i++ {
		if err := s.AppendBlock(block(byte('a'+i), 16)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(dir, "a", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	n, err := r.GetNumberOfBlocks()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("GetNumberOfBlocks = %d, want 3", n)
	}
}

func TestDependencyBlockSizeMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	base, err := Create(dir, "base", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := base.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Create(dir, "child", "base", WithBlockSize(32), WithGroupSize(4))
	if err == nil {
		t.Fatal("expected an error opening a dependency chain with mismatched block sizes")
	}
}

func TestDependencyCycleRejected(t *testing.T) {
	dir := t.TempDir()

	a, err := Create(dir, "a", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	// Forge a.dsc to point back to itself.
	if err := forceDescriptor(dir, "a", descriptor{blockSize: 16, blockGroupSize: 4, depBase: "a"}); err != nil {
		t.Fatal(err)
	}

	_, err = Open(dir, "a", WithBlockSize(16), WithGroupSize(4))
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}
