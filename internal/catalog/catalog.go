// Package catalog maintains a directory-wide manifest of the stores living
// alongside each other, so a caller can validate the whole dependency
// forest (no cycles, every named dependency present) before opening any one
// store, and can render that manifest as human-editable text.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Entry describes one store: its basename and the basename of its direct
// dependency (empty if it has none).
type Entry struct {
	Base string
	Dep  string
}

// Catalog is an ordered set of entries, one per store in a directory.
type Catalog struct {
	Entries []Entry
}

type node struct {
	id   int64
	base string
}

func (n *node) ID() int64 { return n.id }

// Validate checks that every entry's Dep (if non-empty) names another entry
// in the catalog and that the dependency graph has no cycles, the same way
// a package build graph is checked before scheduling work.
func (c *Catalog) Validate() error {
	byBase := make(map[string]*node, len(c.Entries))
	g := simple.NewDirectedGraph()
	for i, e := range c.Entries {
		n := &node{id: int64(i), base: e.Base}
		byBase[e.Base] = n
		g.AddNode(n)
	}

	for _, e := range c.Entries {
		if e.Dep == "" {
			continue
		}
		if e.Dep == e.Base {
			return xerrors.Errorf("dependency cycle: %s", e.Base)
		}
		dep, ok := byBase[e.Dep]
		if !ok {
			return xerrors.Errorf("entry %q depends on %q, which is not in the catalog", e.Base, e.Dep)
		}
		from := byBase[e.Base]
		g.SetEdge(g.NewEdge(from, dep))
	}

	if _, err := topo.Sort(g); err != nil {
		uo, ok := err.(topo.Unorderable)
		if !ok {
			return err
		}
		return xerrors.Errorf("dependency cycle: %s", describeCycle(uo))
	}
	return nil
}

func describeCycle(uo topo.Unorderable) string {
	var names []string
	for _, component := range uo {
		if len(component) < 2 {
			continue
		}
		var cycle []string
		for _, n := range component {
			cycle = append(cycle, n.(*node).base)
		}
		sort.Strings(cycle)
		names = append(names, strings.Join(cycle, " -> "))
	}
	return strings.Join(names, "; ")
}

// Scan builds a Catalog from every *.dsc file in dir by reading each one's
// dependency-name line directly (it does not open the stores themselves, so
// it works even while one of them is locked for writing).
func Scan(dir string) (*Catalog, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.dsc"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var c Catalog
	for _, path := range matches {
		base := strings.TrimSuffix(filepath.Base(path), ".dsc")
		dep, err := readDepName(path)
		if err != nil {
			return nil, xerrors.Errorf("%s: %w", path, err)
		}
		c.Entries = append(c.Entries, Entry{Base: base, Dep: dep})
	}
	return &c, nil
}

func readDepName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	nl := strings.IndexByte(string(data), '\n')
	if nl < 0 {
		return "", nil
	}
	return string(data[nl+1:]), nil
}

// Format renders c as a pretty-printed, manually-editable text record (one
// stanza per entry), using a textproto formatter even though this is not
// itself a protobuf message — txtpbfmt formats any textproto-shaped text.
func Format(c *Catalog) ([]byte, error) {
	var b strings.Builder
	for _, e := range c.Entries {
		fmt.Fprintf(&b, "entry {\n  base: %q\n", e.Base)
		if e.Dep != "" {
			fmt.Fprintf(&b, "  dep: %q\n", e.Dep)
		}
		b.WriteString("}\n")
	}
	formatted, err := parser.Format([]byte(b.String()))
	if err != nil {
		return nil, xerrors.Errorf("format catalog: %w", err)
	}
	return formatted, nil
}

// WriteManifest validates c, formats it, and atomically replaces
// dir/CATALOG so a reader never observes a half-written manifest.
func WriteManifest(dir string, c *Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	formatted, err := Format(c)
	if err != nil {
		return err
	}
	return renameio.WriteFile(filepath.Join(dir, "CATALOG"), formatted, 0644)
}

var _ graph.Node = (*node)(nil)
