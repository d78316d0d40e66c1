// Program snapfs-dump streams a store's reconstructed logical content
// through parallel gzip compression, either to stdout or atomically to a
// named output file.
//
// Example:
//
//	% snapfs-dump -dir /backups -base snapshot-2026-07-31 -o snapshot.raw.gz
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio"
	"github.com/klauspost/pgzip"

	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/store"
)

func main() {
	var (
		dir    = flag.String("dir", env.Root, "directory containing the store files")
		base   = flag.String("base", "", "basename of the store to dump")
		output = flag.String("o", "", "output file path (defaults to stdout)")
	)
	flag.Parse()

	if *base == "" {
		log.Fatal("-base is required")
	}

	if err := logic(*dir, *base, *output); err != nil {
		log.Fatal(err)
	}
}

func logic(dir, base, output string) error {
	s, err := store.Open(dir, base)
	if err != nil {
		return err
	}
	defer s.Close()

	if output == "" {
		return dump(s, os.Stdout)
	}

	out, err := renameio.TempFile("", output)
	if err != nil {
		return err
	}
	defer out.Cleanup()
	if err := dump(s, out); err != nil {
		return err
	}
	return out.CloseAtomicallyReplace()
}

func dump(s *store.Store, w io.Writer) error {
	zw := pgzip.NewWriter(w)

	n, err := s.GetNumberOfBlocks()
	if err != nil {
		return err
	}
	buf := make([]byte, s.BlockSize())
	for i := int64(0); i < n; i++ {
		if err := s.ReadBlock(i, buf); err != nil {
			return err
		}
		if _, err := zw.Write(buf); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	log.Printf("dumped %s (%s logical)", s.Base(), humanize.Bytes(uint64(n*int64(s.BlockSize()))))
	return nil
}
