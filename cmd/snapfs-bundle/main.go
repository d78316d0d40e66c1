// Program snapfs-bundle packs a store together with its full dependency
// chain into a single cpio archive, so a backup set can be copied or shipped
// as one file instead of four per store.
//
// Example:
//
//	% snapfs-bundle -dir /backups -base snapshot-2026-07-31 > bundle.cpio
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/cavaliercoder/go-cpio"

	"github.com/snapfs/snapfs/internal/catalog"
	"github.com/snapfs/snapfs/internal/env"
)

func main() {
	var (
		dir  = flag.String("dir", env.Root, "directory containing the store files")
		base = flag.String("base", "", "basename of the store to bundle")
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
	chain, err := resolveChain(dir, base)
	if err != nil {
		return err
	}

	wr := cpio.NewWriter(w)
	for _, b := range chain {
		for _, ext := range []string{".dat", ".idx", ".dsc", ".hsh"} {
			if err := copyFile(wr, dir, b+ext); err != nil {
				return err
			}
		}
	}
	return wr.Close()
}

// resolveChain returns base followed by each of its ancestors, nearest
// first, by walking the on-disk .dsc chain directly (no store needs to be
// opened, so a store currently locked for writing can still be bundled once
// closed).
func resolveChain(dir, base string) ([]string, error) {
	c, err := catalog.Scan(dir)
	if err != nil {
		return nil, err
	}
	byBase := map[string]catalog.Entry{}
	for _, e := range c.Entries {
		byBase[e.Base] = e
	}

	var chain []string
	name := base
	for name != "" {
		chain = append(chain, name)
		e, ok := byBase[name]
		if !ok {
			break
		}
		name = e.Dep
	}
	return chain, nil
}

func copyFile(wr *cpio.Writer, dir, name string) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if err := wr.WriteHeader(&cpio.Header{
		Name: name,
		Mode: cpio.FileMode(fi.Mode().Perm()),
		Size: fi.Size(),
	}); err != nil {
		return err
	}
	_, err = io.Copy(wr, f)
	return err
}
