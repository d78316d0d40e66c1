package store

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes a Store's write-path counters to Prometheus. It wraps
// GetWriteStats rather than hooking the counters directly, so it works the
// same whether the Store is actively being written to or has already been
// closed (a closed writeStats snapshot just stops changing).
type Collector struct {
	store *Store
	base  string

	newDesc      *prometheus.Desc
	reusedDesc   *prometheus.Desc
	hashCollDesc *prometheus.Desc
	zeroDesc     *prometheus.Desc
	dblRefsDesc  *prometheus.Desc
}

// NewCollector returns a Collector reporting s's counters under the given
// store label.
func NewCollector(s *Store, storeLabel string) *Collector {
	labels := []string{"store"}
	return &Collector{
		store: s,
		base:  storeLabel,
		newDesc: prometheus.NewDesc("snapfs_blocks_new_total",
			"Blocks written that were not found anywhere in the dependency chain.", labels, nil),
		reusedDesc: prometheus.NewDesc("snapfs_blocks_reused_total",
			"Blocks written as a back-reference to a dependency.", labels, nil),
		hashCollDesc: prometheus.NewDesc("snapfs_blocks_hash_collisions_total",
			"Dedup probe matches that turned out not to be the same content.", labels, nil),
		zeroDesc: prometheus.NewDesc("snapfs_blocks_zero_total",
			"Reserved zero-block counter; the store's write path never increments it.", labels, nil),
		dblRefsDesc: prometheus.NewDesc("snapfs_blocks_double_refs_total",
			"Dedup candidates skipped because they were themselves a back-reference.", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.newDesc
	ch <- c.reusedDesc
	ch <- c.hashCollDesc
	ch <- c.zeroDesc
	ch <- c.dblRefsDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.store.GetWriteStats()
	ch <- prometheus.MustNewConstMetric(c.newDesc, prometheus.CounterValue, float64(st.New), c.base)
	ch <- prometheus.MustNewConstMetric(c.reusedDesc, prometheus.CounterValue, float64(st.Reused), c.base)
	ch <- prometheus.MustNewConstMetric(c.hashCollDesc, prometheus.CounterValue, float64(st.HashColl), c.base)
	ch <- prometheus.MustNewConstMetric(c.zeroDesc, prometheus.CounterValue, float64(st.Zero), c.base)
	ch <- prometheus.MustNewConstMetric(c.dblRefsDesc, prometheus.CounterValue, float64(st.DblRefs), c.base)
}

var _ prometheus.Collector = (*Collector)(nil)
