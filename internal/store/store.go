// Package store implements an append-only, per-block-compressed,
// cross-store-deduplicating storage engine: four sibling files (.dat, .idx,
// .dsc, .hsh) per store, a big-endian block-group index, and a dependency
// chain that lets a new store back-reference blocks already present in an
// older one instead of storing them again.
package store

import (
	"io"

	"golang.org/x/sys/unix"
)

const (
	// DefaultBlockSize is the block size (B) new stores use unless
	// overridden with WithBlockSize.
	DefaultBlockSize = 4096
	// DefaultGroupSize is the block group size (G) new stores use unless
	// overridden with WithGroupSize.
	DefaultGroupSize = 1020
)

// Store is one open append-only block store. A Store returned by Create is
// a writer; one returned by Open is read-only. Neither is safe for
// concurrent use.
type Store struct {
	dir, base string
	files     *storeFiles
	readOnly  bool
	locked    bool

	blockSize      int
	blockGroupSize int

	// currentBlock is the write cursor: the index the next AppendBlock call
	// will occupy. Meaningless for a read-only Store.
	currentBlock int64

	// entry/entryGroup cache the block-group index record currently being
	// filled (writer) or most recently loaded (reader). entryGroup == -1
	// means "nothing loaded yet".
	entry      *indexEntry
	entryGroup int64
	entryBuf   []byte // scratch buffer of size indexEntrySize(G), reused across flush/load

	deps []*Store

	codec  *zstdCodec
	hasher Hasher
	stats  *writeStats

	cache *blockCache // optional, shared across a Store and set by WithCache

	scratch []byte // CHUNK-sized scratch buffer for compressed I/O
}

// config collects the options a Create call can be customised with. Tests
// use WithBlockSize/WithGroupSize to exercise small B/G; cmd/snapfs-write
// exposes them as flags that default to DefaultBlockSize/DefaultGroupSize.
type config struct {
	blockSize      int
	blockGroupSize int
	cache          *blockCache
}

// Option customises Create or Open.
type Option func(*config)

// WithBlockSize overrides the default block size B. Only meaningful for
// Create.
func WithBlockSize(n int) Option { return func(c *config) { c.blockSize = n } }

// WithGroupSize overrides the default block group size G. Only meaningful
// for Create.
func WithGroupSize(n int) Option { return func(c *config) { c.blockGroupSize = n } }

// WithCache attaches a read-through LRU cache of decompressed blocks to the
// Store being opened.
func WithCache(c *blockCache) Option { return func(cfg *config) { cfg.cache = c } }

func applyOptions(opts []Option) config {
	cfg := config{blockSize: DefaultBlockSize, blockGroupSize: DefaultGroupSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Create truncates and opens the four files for base inside dir as a new
// writer, optionally chaining to depBase as its direct dependency.
func Create(dir, base, depBase string, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)

	files, err := openFiles(dir, base, true)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(files.dat.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		files.closeAll()
		return nil, preconditionErrorf("acquire exclusive lock on %s.dat: %w", base, err)
	}

	s := &Store{
		dir:            dir,
		base:           base,
		files:          files,
		blockSize:      cfg.blockSize,
		blockGroupSize: cfg.blockGroupSize,
		currentBlock:   0,
		entry:          newIndexEntry(cfg.blockGroupSize),
		entryGroup:     0,
		entryBuf:       make([]byte, indexEntrySize(cfg.blockGroupSize)),
		stats:          newWriteStats(),
		hasher:         xxhashProbe{},
		cache:          cfg.cache,
		locked:         true,
		scratch:        make([]byte, chunkSize),
	}

	codec, err := newZstdCodec()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.codec = codec

	if err := writeDescriptor(files.dsc, descriptor{
		blockSize:      cfg.blockSize,
		blockGroupSize: cfg.blockGroupSize,
		depBase:        depBase,
	}); err != nil {
		s.Close()
		return nil, err
	}
	if err := files.dsc.Sync(); err != nil {
		s.Close()
		return nil, ioErrorf("sync .dsc", err)
	}

	if depBase != "" {
		deps, err := loadDepChain(dir, depBase, cfg.blockSize)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.deps = deps
	}

	return s, nil
}

// Open opens base inside dir as a read-only Store, loading its full
// dependency chain.
func Open(dir, base string, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)

	s, err := openNoDeps(dir, base)
	if err != nil {
		return nil, err
	}
	s.cache = cfg.cache

	d, err := readDescriptor(s.dscReader())
	if err != nil {
		s.Close()
		return nil, err
	}
	if d.depBase != "" {
		deps, err := loadDepChain(dir, d.depBase, s.blockSize)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.deps = deps
	}
	return s, nil
}

// openNoDeps opens base inside dir read-only without following its
// dependency chain; used both by Open (which then resolves the chain
// itself) and by loadDepChain (each link in the chain is independently
// opened this way, since a dependency's own ReadBlockNonRecursive never
// recurses into further dependencies).
func openNoDeps(dir, base string) (*Store, error) {
	files, err := openFiles(dir, base, false)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(files.dat.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
		files.closeAll()
		return nil, preconditionErrorf("acquire shared lock on %s.dat: %w", base, err)
	}

	d, err := readDescriptor(files.dsc)
	if err != nil {
		files.closeAll()
		return nil, err
	}

	s := &Store{
		dir:            dir,
		base:           base,
		files:          files,
		readOnly:       true,
		blockSize:      d.blockSize,
		blockGroupSize: d.blockGroupSize,
		currentBlock:   -1,
		entry:          newIndexEntry(d.blockGroupSize),
		entryGroup:     -1,
		entryBuf:       make([]byte, indexEntrySize(d.blockGroupSize)),
		stats:          newWriteStats(),
		hasher:         xxhashProbe{},
		locked:         true,
		scratch:        make([]byte, chunkSize),
	}

	codec, err := newZstdCodec()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.codec = codec

	return s, nil
}

// Close flushes any pending partial index entry (writers only) and releases
// the store's files, locks and dependency chain.
func (s *Store) Close() error {
	var flushErr error
	if !s.readOnly && s.currentBlock%int64(s.blockGroupSize) != 0 {
		flushErr = s.flushIndexEntry()
	}
	if s.codec != nil {
		s.codec.Close()
	}
	closeChain(s.deps)
	if s.locked && s.files != nil && s.files.dat != nil {
		unix.Flock(int(s.files.dat.Fd()), unix.LOCK_UN)
	}
	if s.files != nil {
		s.files.closeAll()
	}
	return flushErr
}

// Base returns the store's basename.
func (s *Store) Base() string { return s.base }

// BlockSize returns B.
func (s *Store) BlockSize() int { return s.blockSize }

// GroupSize returns G.
func (s *Store) GroupSize() int { return s.blockGroupSize }

const chunkSize = 65536

var _ io.Closer = (*Store)(nil)
