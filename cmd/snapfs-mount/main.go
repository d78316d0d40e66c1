// Program snapfs-mount mounts a store's logical content read-only as a
// single flat file, using FUSE, so tools that expect a plain file path can
// be pointed at a store without materializing it to disk first.
//
// Example:
//
//	% snapfs-mount -dir /backups -base snapshot-2026-07-31 /mnt/snapshot
package main

import (
	"context"
	"flag"
	"log"

	"github.com/jacobsa/fuse"

	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/fuseview"
	"github.com/snapfs/snapfs/internal/oninterrupt"
	"github.com/snapfs/snapfs/internal/store"
)

func main() {
	var (
		dir  = flag.String("dir", env.Root, "directory containing the store files")
		base = flag.String("base", "", "basename of the store to mount")
	)
	flag.Parse()

	if *base == "" {
		log.Fatal("-base is required")
	}
	if flag.NArg() != 1 {
		log.Fatal("syntax: snapfs-mount -base <base> <mountpoint>")
	}
	mountpoint := flag.Arg(0)

	s, err := store.Open(*dir, *base)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	join, err := fuseview.Mount(context.Background(), s, mountpoint)
	if err != nil {
		log.Fatal(err)
	}
	oninterrupt.Register(func() {
		fuse.Unmount(mountpoint)
	})

	if err := join(context.Background()); err != nil {
		log.Fatal(err)
	}
}
