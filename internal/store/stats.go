package store

import "go.uber.org/atomic"

// WriteStats is a point-in-time snapshot of a writer's dedup counters.
type WriteStats struct {
	New      int64
	Reused   int64
	HashColl int64
	Zero     int64
	DblRefs  int64
}

// writeStats holds the five live counters. Atomics let GetWriteStats be
// called safely from a monitoring goroutine (e.g. snapfs-statusd's metrics
// scrape) even though AppendBlock itself is single-threaded.
type writeStats struct {
	new      atomic.Int64
	reused   atomic.Int64
	hashColl atomic.Int64
	zero     atomic.Int64
	dblRefs  atomic.Int64
}

func newWriteStats() *writeStats { return &writeStats{} }

func (s *writeStats) snapshot() WriteStats {
	return WriteStats{
		New:      s.new.Load(),
		Reused:   s.reused.Load(),
		HashColl: s.hashColl.Load(),
		Zero:     s.zero.Load(),
		DblRefs:  s.dblRefs.Load(),
	}
}

// GetWriteStats returns a snapshot of the five write-path counters.
func (s *Store) GetWriteStats() WriteStats { return s.stats.snapshot() }
