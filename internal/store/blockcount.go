package store

import "io"

// GetNumberOfBlocks recovers the logical block count from .idx alone,
// without consulting .dat or .hsh. The last group's record may be only
// partially filled; the first zero offset slot marks the end of real data,
// since a genuinely used slot is always either a positive compressed length
// or a negative back-reference depth, never zero.
func (s *Store) GetNumberOfBlocks() (int64, error) {
	entrySize := indexEntrySize(s.blockGroupSize)

	end, err := s.files.idx.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, ioErrorf("seek .idx", err)
	}

	if end%entrySize != 0 {
		return 0, formatErrorf(".idx is %d bytes, not a multiple of the %d-byte entry width", end, entrySize)
	}
	numGroups := end / entrySize
	if numGroups == 0 {
		return 0, nil
	}

	buf := make([]byte, entrySize)
	if _, err := s.files.idx.ReadAt(buf, (numGroups-1)*entrySize); err != nil {
		return 0, ioErrorf("read .idx", err)
	}
	last := newIndexEntry(s.blockGroupSize)
	last.unmarshalBE(buf)

	filled := 0
	for _, off := range last.offsets {
		if off == 0 {
			break
		}
		filled++
	}

	return (numGroups-1)*int64(s.blockGroupSize) + int64(filled), nil
}
