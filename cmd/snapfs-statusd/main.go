// Program snapfs-statusd serves a Prometheus /metrics endpoint and an
// optional static dashboard reporting the write-path dedup counters of one
// or more stores. Each store is opened read-only in this process, so the
// counters reported are those of these read-only Store values, which never
// append and stay at zero; counters kept by a writer in another process are
// not visible, and opening a store fails while a writer holds its exclusive
// lock.
//
// Example:
//
//	% snapfs-statusd -listen :9191 -dir /backups -base snapshot-2026-07-31
package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/lpar/gzipped/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/snapfs/snapfs/internal/addrfd"
	"github.com/snapfs/snapfs/internal/env"
	"github.com/snapfs/snapfs/internal/lifecycle"
	"github.com/snapfs/snapfs/internal/oninterrupt"
	"github.com/snapfs/snapfs/internal/store"
)

func main() {
	var (
		listen     = flag.String("listen", ":9191", "[host]:port listen address")
		dir        = flag.String("dir", env.Root, "directory containing the store files")
		bases      = flag.String("base", "", "comma-separated basenames of the stores to report on")
		maxClients = flag.Int("max_clients", 64, "maximum number of simultaneous HTTP connections")
		assets     = flag.String("assets", "", "directory of static dashboard assets to serve at /, if any")
	)
	flag.Parse()

	if *bases == "" {
		log.Fatal("-base is required")
	}

	reg := prometheus.NewRegistry()
	for _, base := range strings.Split(*bases, ",") {
		s, err := store.Open(*dir, base)
		if err != nil {
			log.Fatalf("opening %s: %v", base, err)
		}
		lifecycle.RegisterAtExit(s.Close)
		if err := reg.Register(store.NewCollector(s, base)); err != nil {
			log.Fatalf("registering collector for %s: %v", base, err)
		}
	}
	oninterrupt.Register(func() {
		if err := lifecycle.RunAtExit(); err != nil {
			log.Printf("atexit: %v", err)
		}
	})

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if *assets != "" {
		http.Handle("/", gzipped.FileServer(http.Dir(*assets)))
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatal(err)
	}
	ln = netutil.LimitListener(ln, *maxClients)
	addrfd.MustWrite(ln.Addr().String())
	log.Printf("serving metrics on %s", ln.Addr())
	log.Fatal(http.Serve(ln, nil))
}
