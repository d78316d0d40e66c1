// Program snapfs-write reads a stream of fixed-size blocks from stdin and
// appends each one to a newly created store (an existing store of the same
// basename is truncated), optionally chaining it to an existing dependency
// store.
//
// Example:
//
//	% snapfs-write -dir /backups -base snapshot-2026-07-31 -dep snapshot-2026-07-24 < image.raw
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/oninterrupt"
	"github.com/snapfs/snapfs/internal/store"
	"github.com/snapfs/snapfs/internal/trace"
)

func main() {
	var (
		dir       = flag.String("dir", env.Root, "directory containing the store files")
		base      = flag.String("base", "", "basename of the store to create")
		dep       = flag.String("dep", "", "basename of the direct dependency store, if any")
		blockSize = flag.Int("block_size", store.DefaultBlockSize, "block size in bytes")
		groupSize = flag.Int("group_size", store.DefaultGroupSize, "blocks per index group")
		traceName = flag.String("trace", "", "if non-empty, write a chrome://tracing-compatible trace under this name")
	)
	flag.Parse()

	if *base == "" {
		log.Fatal("-base is required")
	}
	if *traceName != "" {
		if err := trace.Enable(*traceName); err != nil {
			log.Fatal(err)
		}
	}

	if err := logic(*dir, *base, *dep, *blockSize, *groupSize, os.Stdin); err != nil {
		log.Fatal(err)
	}
}

func logic(dir, base, dep string, blockSize, groupSize int, r io.Reader) error {
	s, err := store.Create(dir, base, dep,
		store.WithBlockSize(blockSize),
		store.WithGroupSize(groupSize))
	if err != nil {
		return err
	}
	oninterrupt.Register(func() {
		s.Close()
	})

	buf := make([]byte, blockSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				s.Close()
				return fmt.Errorf("input length is not a multiple of the block size (%d)", blockSize)
			}
			s.Close()
			return err
		}
		ev := trace.Event("AppendBlock", 0)
		err := s.AppendBlock(buf)
		ev.Done()
		if err != nil {
			s.Close()
			return err
		}
	}

	if err := s.Close(); err != nil {
		return err
	}
	stats := s.GetWriteStats()
	log.Printf("wrote %s: new=%d reused=%d hashcoll=%d dblrefs=%d",
		base, stats.New, stats.Reused, stats.HashColl, stats.DblRefs)
	return nil
}
