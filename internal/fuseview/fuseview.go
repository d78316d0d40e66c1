// Package fuseview mounts a single store's logical content read-only as one
// flat file, so tools that expect a plain file path (a restore target, a
// loopback-mountable image) can be pointed at a store without first
// materializing it to disk.
package fuseview

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/xerrors"

	"github.com/snapfs/snapfs/internal/store"
)

const (
	rootInode = fuseops.RootInodeID
	fileInode = rootInode + 1
	fileName  = "data"
)

// fs implements fuseutil.FileSystem over a single *store.Store, exposing its
// logical content as one read-only file named "data" at the mount root.
type fs struct {
	fuseutil.NotImplementedFileSystem

	mu      sync.Mutex
	s       *store.Store
	size    int64
	modTime time.Time
}

// Mount mounts s read-only at mountpoint and returns a function that blocks
// until the mount is unmounted.
func Mount(ctx context.Context, s *store.Store, mountpoint string) (join func(context.Context) error, err error) {
	n, err := s.GetNumberOfBlocks()
	if err != nil {
		return nil, err
	}

	fsys := &fs{
		s:       s,
		size:    n * int64(s.BlockSize()),
		modTime: time.Now(),
	}
	server := fuseutil.NewFileSystemServer(fsys)

	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "snapfs",
		ReadOnly: true,
	})
	if err != nil {
		return nil, xerrors.Errorf("fuse.Mount: %w", err)
	}
	return mfs.Join, nil
}

func (f *fs) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

func (f *fs) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	if op.Parent != rootInode || op.Name != fileName {
		return fuse.ENOENT
	}
	op.Entry.Child = fileInode
	op.Entry.Attributes = f.fileAttrs()
	return nil
}

func (f *fs) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	switch op.Inode {
	case rootInode:
		op.Attributes = f.dirAttrs()
	case fileInode:
		op.Attributes = f.fileAttrs()
	default:
		return fuse.ENOENT
	}
	return nil
}

func (f *fs) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	if op.Inode != rootInode {
		return fuse.ENOENT
	}
	return nil
}

func (f *fs) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	if op.Offset > 0 {
		return nil
	}
	de := fuseutil.Dirent{
		Offset: 1,
		Inode:  fileInode,
		Name:   fileName,
		Type:   fuseutil.DT_File,
	}
	n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], de)
	op.BytesRead += n
	return nil
}

func (f *fs) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	if op.Inode != fileInode {
		return fuse.ENOENT
	}
	return nil
}

// ReadFile serves reads by resolving the byte range into logical blocks and
// decoding each one on demand; store.Store already caches decompressed
// blocks when opened with a cache, so repeated sequential reads (the only
// access pattern a single flat file sees) stay cheap.
func (f *fs) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if op.Offset >= f.size {
		op.BytesRead = 0
		return nil
	}

	blockSize := int64(f.s.BlockSize())
	block := make([]byte, blockSize)

	remaining := op.Dst
	pos := op.Offset
	for len(remaining) > 0 && pos < f.size {
		blockIdx := pos / blockSize
		blockOff := pos % blockSize

		if err := f.s.ReadBlock(blockIdx, block); err != nil {
			return xerrors.Errorf("ReadBlock(%d): %w", blockIdx, err)
		}

		n := copy(remaining, block[blockOff:])
		remaining = remaining[n:]
		pos += int64(n)
		op.BytesRead += n
	}
	return nil
}

func (f *fs) dirAttrs() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Nlink: 2,
		Mode:  os.ModeDir | 0555,
		Mtime: f.modTime,
	}
}

func (f *fs) fileAttrs() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Nlink: 1,
		Size:  uint64(f.size),
		Mode:  0444,
		Mtime: f.modTime,
	}
}

var _ fuseutil.FileSystem = (*fs)(nil)
