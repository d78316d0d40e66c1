package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// maxDepChain is the hard cap on dependency chain length.
const maxDepChain = 64

// descriptor is the parsed form of a .dsc file: block size, group size, and
// the basename of the direct dependency (empty if none).
type descriptor struct {
	blockSize      int
	blockGroupSize int
	depBase        string
}

// readDescriptor parses "<B> <G>\n<depbase>" from r. depbase may be absent
// (no trailing newline required, per spec).
func readDescriptor(r io.Reader) (descriptor, error) {
	br := bufio.NewReader(r)
	var d descriptor
	if _, err := fmt.Fscanf(br, "%d %d\n", &d.blockSize, &d.blockGroupSize); err != nil {
		return descriptor{}, formatErrorf("parse .dsc header: %w", err)
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return descriptor{}, ioErrorf("read .dsc remainder", err)
	}
	d.depBase = string(rest)
	return d, nil
}

// writeDescriptor writes "<B> <G>\n<depbase>" to w.
func writeDescriptor(w io.Writer, d descriptor) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", d.blockSize, d.blockGroupSize); err != nil {
		return ioErrorf("write .dsc header", err)
	}
	if d.depBase != "" {
		if _, err := io.WriteString(w, d.depBase); err != nil {
			return ioErrorf("write .dsc dep name", err)
		}
	}
	return nil
}

// storeFiles bundles the four sibling files of one store.
type storeFiles struct {
	dat, idx, dsc, hsh *os.File
}

// openFiles opens the four sibling files of base inside dir,
// read-write (so locking and, for writers, appending both work), opening
// all four concurrently since they are otherwise independent until the
// Store value exists.
func openFiles(dir, base string, create bool) (*storeFiles, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE | os.O_TRUNC
	}
	paths := map[string]**os.File{}
	sf := &storeFiles{}
	for ext, dst := range map[string]**os.File{
		".dat": &sf.dat,
		".idx": &sf.idx,
		".dsc": &sf.dsc,
		".hsh": &sf.hsh,
	} {
		paths[ext] = dst
	}

	var eg errgroup.Group
	for ext, dst := range paths {
		ext, dst := ext, dst
		eg.Go(func() error {
			path := filepath.Join(dir, base+ext)
			f, err := os.OpenFile(path, flags, 0644)
			if err != nil {
				return ioErrorf("open "+path, err)
			}
			*dst = f
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		sf.closeAll()
		return nil, err
	}
	return sf, nil
}

func (sf *storeFiles) closeAll() {
	for _, f := range []*os.File{sf.dat, sf.idx, sf.dsc, sf.hsh} {
		if f != nil {
			f.Close()
		}
	}
}

// loadDepChain transitively opens the dependency chain starting at
// firstDep, nearest-parent-first, up to maxDepChain levels, detecting
// cycles by basename and requiring every dependency's block size to match
// blockSize.
func loadDepChain(dir, firstDep string, blockSize int) ([]*Store, error) {
	if firstDep == "" {
		return nil, nil
	}
	var chain []*Store
	seen := map[string]bool{}
	name := firstDep
	for {
		if seen[name] {
			closeChain(chain)
			return nil, formatErrorf("dependency cycle detected at %q", name)
		}
		seen[name] = true

		dep, err := openNoDeps(dir, name)
		if err != nil {
			closeChain(chain)
			return nil, err
		}
		if dep.blockSize != blockSize {
			closeChain(chain)
			return nil, formatErrorf("dependency %q has block size %d, want %d", name, dep.blockSize, blockSize)
		}
		chain = append(chain, dep)
		if len(chain) == maxDepChain {
			break
		}

		d, err := readDescriptor(dep.dscReader())
		if err != nil {
			closeChain(chain)
			return nil, err
		}
		if d.depBase == "" {
			break
		}
		name = d.depBase
	}
	return chain, nil
}

func closeChain(chain []*Store) {
	for _, s := range chain {
		s.Close()
	}
}

// dscReader returns a fresh reader over the whole .dsc file, used only for
// re-reading the next dependency name while walking the chain.
func (s *Store) dscReader() io.Reader {
	s.files.dsc.Seek(0, io.SeekStart)
	return s.files.dsc
}
