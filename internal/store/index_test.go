package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIndexEntryMarshalBigEndian(t *testing.T) {
	e := newIndexEntry(4)
	e.baseOffset = 0x0102030405060708
	e.offsets = []int16{100, -1, 0, 32767}

	buf := make([]byte, indexEntrySize(4))
	e.marshalBE(buf)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("baseOffset byte %d = %#x, want %#x", i, buf[i], b)
		}
	}
	if buf[8] != 0x00 || buf[9] != 0x64 {
		t.Fatalf("offsets[0] bytes = %#x %#x, want 0x00 0x64", buf[8], buf[9])
	}

	got := newIndexEntry(4)
	got.unmarshalBE(buf)
	if diff := cmp.Diff(e, got, cmp.AllowUnexported(indexEntry{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexEntryReset(t *testing.T) {
	e := newIndexEntry(3)
	e.baseOffset = 42
	e.offsets[1] = -5
	e.reset()
	if e.baseOffset != 0 {
		t.Fatalf("reset left baseOffset = %d", e.baseOffset)
	}
	for i, v := range e.offsets {
		if v != 0 {
			t.Fatalf("reset left offsets[%d] = %d", i, v)
		}
	}
}

func TestIndexEntrySize(t *testing.T) {
	if got := indexEntrySize(1020); got != 8+2*1020 {
		t.Fatalf("indexEntrySize(1020) = %d, want %d", got, 8+2*1020)
	}
}
