package store

import "io"

// GetBlockHash returns the one-byte content hash recorded for logical block
// i. It is the cheap probe a writer chaining off this store consults before
// doing a full comparison.
func (s *Store) GetBlockHash(i int64) (uint8, error) {
	n, err := s.GetNumberOfBlocks()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, preconditionErrorf("GetBlockHash: block %d out of range [0,%d)", i, n)
	}

	buf := make([]byte, 1)
	if _, err := s.files.hsh.ReadAt(buf, i); err != nil {
		return 0, ioErrorf("read .hsh", err)
	}
	return buf[0], nil
}

// ReadBlockNonRecursive reads logical block i into buf without following a
// back-reference into a dependency: it returns the dependency number the
// slot names instead. A return of 0 means the block is stored locally
// (already decompressed into buf) or its slot is zero (buf is zero-filled);
// a positive return d means the on-disk entry is a back-reference to depth d
// in the dependency chain, and buf is left unmodified.
func (s *Store) ReadBlockNonRecursive(i int64, buf []byte) (int, error) {
	if len(buf) != s.blockSize {
		return 0, preconditionErrorf("ReadBlockNonRecursive: got %d byte buffer, want %d", len(buf), s.blockSize)
	}

	group := i / int64(s.blockGroupSize)
	slot := int(i % int64(s.blockGroupSize))

	if err := s.loadGroup(group); err != nil {
		return 0, err
	}

	off := s.entry.offsets[slot]
	if off == 0 {
		for j := range buf {
			buf[j] = 0
		}
		return 0, nil
	}
	if off < 0 {
		return int(-off), nil
	}

	if s.cache != nil {
		if cached, ok := s.cache.get(s, i); ok {
			copy(buf, cached)
			return 0, nil
		}
	}

	compressed := make([]byte, off)
	dataOffset := s.groupDataOffset(group, slot)
	if _, err := s.files.dat.ReadAt(compressed, dataOffset); err != nil {
		return 0, ioErrorf("read .dat", err)
	}
	if err := s.codec.Decompress(buf, compressed); err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.put(s, i, buf)
	}
	return 0, nil
}

// ReadBlock reads logical block i into buf, transparently following at most
// one level of back-reference into the dependency chain.
func (s *Store) ReadBlock(i int64, buf []byte) error {
	ref, err := s.ReadBlockNonRecursive(i, buf)
	if err != nil {
		return err
	}
	if ref == 0 {
		return nil
	}
	depIdx := ref - 1
	if depIdx < 0 || depIdx >= len(s.deps) {
		return corruptErrorf("back-reference depth %d out of range for %d-deep chain", ref, len(s.deps))
	}
	dep := s.deps[depIdx]
	depRef, err := dep.ReadBlockNonRecursive(i, buf)
	if err != nil {
		return err
	}
	if depRef != 0 {
		return corruptErrorf("transitive back-reference at block %d in dependency %q", i, dep.base)
	}
	return nil
}

// loadGroup ensures s.entry holds the index record for group, loading it
// from .idx if it is not already cached.
func (s *Store) loadGroup(group int64) error {
	if s.entryGroup == group {
		return nil
	}
	if _, err := s.files.idx.ReadAt(s.entryBuf, group*indexEntrySize(s.blockGroupSize)); err != nil {
		if err == io.EOF {
			return preconditionErrorf("index group %d does not exist", group)
		}
		return ioErrorf("read .idx", err)
	}
	s.entry.unmarshalBE(s.entryBuf)
	s.entryGroup = group
	return nil
}

// groupDataOffset returns the absolute .dat offset of the compressed
// payload at slot within group, computed by summing the preceding slots'
// recorded lengths from the group's base offset.
func (s *Store) groupDataOffset(group int64, slot int) int64 {
	off := int64(s.entry.baseOffset)
	for j := 0; j < slot; j++ {
		if s.entry.offsets[j] > 0 {
			off += int64(s.entry.offsets[j])
		}
	}
	return off
}
