// Program snapfs-fetch downloads a store's four files from a remote source
// (an http(s) URL or another local directory) into a local directory, so a
// dependency chain can be pulled in before it is opened.
//
// Example:
//
//	% snapfs-fetch -source https://backups.example.com/stores -dir /backups -base snapshot-2026-07-24
package main

import (
	"flag"
	"log"

	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/fetch"
	"github.com/snapfs/snapfs/internal/lifecycle"
)

func main() {
	var (
		source = flag.String("source", "", "remote source: an http(s) URL or a local directory")
		dir    = flag.String("dir", env.Root, "local directory to fetch the store files into")
		base   = flag.String("base", "", "basename of the store to fetch")
	)
	flag.Parse()

	if *source == "" {
		log.Fatal("-source is required")
	}
	if *base == "" {
		log.Fatal("-base is required")
	}

	ctx, canc := lifecycle.InterruptibleContext()
	defer canc()
	if err := fetch.Store(ctx, *source, *dir, *base); err != nil {
		log.Fatal(err)
	}
}
