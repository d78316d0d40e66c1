package store

import (
	"bytes"
	"io"
)

// AppendBlock writes one logical block to the store, deduplicating it
// against the dependency chain first. buf must have length exactly
// BlockSize().
func (s *Store) AppendBlock(buf []byte) error {
	if s.readOnly {
		return preconditionErrorf("AppendBlock called on a read-only store")
	}
	if len(buf) != s.blockSize {
		return preconditionErrorf("AppendBlock: got %d bytes, want %d", len(buf), s.blockSize)
	}

	hash := s.hasher.Hash(buf)

	tmp := make([]byte, s.blockSize)
	for d := len(s.deps) - 1; d >= 0; d-- {
		dep := s.deps[d]
		hc, err := dep.GetBlockHash(s.currentBlock)
		if err != nil {
			// Outside the dependency's length: nothing to compare against.
			continue
		}
		if hc != hash {
			continue
		}

		ref, err := dep.ReadBlockNonRecursive(s.currentBlock, tmp)
		if err != nil {
			return err
		}
		if ref != 0 {
			// The candidate block is itself a back-reference in dep: only
			// direct (depth-1) references are ever recorded.
			s.stats.dblRefs.Add(1)
			continue
		}

		if bytes.Equal(tmp, buf) {
			if err := s.appendBackRef(d+1, hash); err != nil {
				return err
			}
			s.stats.reused.Add(1)
			return nil
		}
		s.stats.hashColl.Add(1)
	}

	s.stats.new.Add(1)
	return s.appendLocal(buf, hash)
}

// beginSlot returns the slot within the current group for the block about
// to be written, initialising entry.baseOffset if this is the first slot of
// a new group.
func (s *Store) beginSlot() (slot int, err error) {
	slot = int(s.currentBlock % int64(s.blockGroupSize))
	if slot == 0 {
		off, err := s.files.dat.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, ioErrorf("tell .dat", err)
		}
		s.entry.baseOffset = uint64(off)
	}
	return slot, nil
}

func (s *Store) appendLocal(buf []byte, hash uint8) error {
	slot, err := s.beginSlot()
	if err != nil {
		return err
	}

	compressed, err := s.codec.Compress(s.scratch[:0], buf)
	if err != nil {
		return err
	}
	if len(compressed) == 0 {
		return formatErrorf("codec produced an empty payload for a non-empty block")
	}
	if len(compressed) > maxCompressedLen {
		return formatErrorf("compressed block is %d bytes, exceeds the %d-byte limit", len(compressed), maxCompressedLen)
	}

	if _, err := s.files.dat.Write(compressed); err != nil {
		return ioErrorf("write .dat", err)
	}
	s.entry.offsets[slot] = int16(len(compressed))

	return s.finishSlot(hash)
}

func (s *Store) appendBackRef(depNum int, hash uint8) error {
	slot, err := s.beginSlot()
	if err != nil {
		return err
	}
	s.entry.offsets[slot] = int16(-depNum)
	return s.finishSlot(hash)
}

func (s *Store) finishSlot(hash uint8) error {
	if _, err := s.files.hsh.Write([]byte{hash}); err != nil {
		return ioErrorf("write .hsh", err)
	}

	slot := int(s.currentBlock % int64(s.blockGroupSize))
	s.currentBlock++
	if slot == s.blockGroupSize-1 {
		return s.flushIndexEntry()
	}
	return nil
}

// flushIndexEntry writes the in-progress group record to .idx at its
// group-aligned offset, fsyncs .dat and .idx, and clears the in-memory
// entry for the next group.
func (s *Store) flushIndexEntry() error {
	if s.currentBlock == 0 {
		return nil
	}
	group := (s.currentBlock - 1) / int64(s.blockGroupSize)

	if _, err := s.files.idx.Seek(group*indexEntrySize(s.blockGroupSize), io.SeekStart); err != nil {
		return ioErrorf("seek .idx", err)
	}
	s.entry.marshalBE(s.entryBuf)
	if _, err := s.files.idx.Write(s.entryBuf); err != nil {
		return ioErrorf("write .idx", err)
	}

	s.entry.reset()
	s.entryGroup = group + 1

	if err := s.files.dat.Sync(); err != nil {
		return ioErrorf("sync .dat", err)
	}
	if err := s.files.idx.Sync(); err != nil {
		return ioErrorf("sync .idx", err)
	}
	return nil
}
