// Program snapfs-read reconstructs a store's full logical content and
// writes it to stdout.
//
// Example:
//
//	% snapfs-read -dir /backups -base snapshot-2026-07-31 > image.raw
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/store"
)

func main() {
	var (
		dir  = flag.String("dir", env.Root, "directory containing the store files")
		base = flag.String("base", "", "basename of the store to read")
	)
	flag.Parse()

	if *base == "" {
		log.Fatal("-base is required")
	}

	if err := logic(*dir, *base, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func logic(dir, base string, w io.Writer) error {
	s, err := store.Open(dir, base)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.GetNumberOfBlocks()
	if err != nil {
		return err
	}

	buf := make([]byte, s.BlockSize())
	for i := int64(0); i < n; i++ {
		if err := s.ReadBlock(i, buf); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	total := n * int64(s.BlockSize())
	log.Printf("read %s (%s)", base, humanize.Bytes(uint64(total)))
	return nil
}
