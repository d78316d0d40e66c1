package store

import "encoding/binary"

// indexEntry is the host-endian in-memory form of one block group's index
// record. Wire (on-disk) form is big-endian and produced/consumed only by
// marshalBE/unmarshalBE, so the live struct is never left half-swapped.
type indexEntry struct {
	baseOffset uint64
	offsets    []int16 // length G
}

func newIndexEntry(g int) *indexEntry {
	return &indexEntry{offsets: make([]int16, g)}
}

func (e *indexEntry) reset() {
	e.baseOffset = 0
	for i := range e.offsets {
		e.offsets[i] = 0
	}
}

// indexEntrySize returns the fixed on-disk width of one group's record:
// 8 bytes for the base offset plus 2 bytes per slot.
func indexEntrySize(g int) int64 { return 8 + 2*int64(g) }

// marshalBE writes e into buf, which must have length indexEntrySize(len(e.offsets)).
func (e *indexEntry) marshalBE(buf []byte) {
	binary.BigEndian.PutUint64(buf[0:8], e.baseOffset)
	for i, v := range e.offsets {
		binary.BigEndian.PutUint16(buf[8+2*i:8+2*i+2], uint16(v))
	}
}

// unmarshalBE reads e from buf, which must have length indexEntrySize(len(e.offsets)).
func (e *indexEntry) unmarshalBE(buf []byte) {
	e.baseOffset = binary.BigEndian.Uint64(buf[0:8])
	for i := range e.offsets {
		e.offsets[i] = int16(binary.BigEndian.Uint16(buf[8+2*i : 8+2*i+2]))
	}
}
