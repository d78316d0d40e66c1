package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateAcceptsLinearChain(t *testing.T) {
	c := &Catalog{Entries: []Entry{
		{Base: "base"},
		{Base: "mid", Dep: "base"},
		{Base: "leaf", Dep: "mid"},
	}}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingDependency(t *testing.T) {
	c := &Catalog{Entries: []Entry{
		{Base: "leaf", Dep: "ghost"},
	}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a dependency absent from the catalog")
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	c := &Catalog{Entries: []Entry{
		{Base: "a", Dep: "b"},
		{Base: "b", Dep: "a"},
	}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a two-store cycle")
	}
}

func TestScanReadsDescriptorFiles(t *testing.T) {
	dir := t.TempDir()
	writeDsc(t, dir, "base", "16 4\n")
	writeDsc(t, dir, "child", "16 4\nbase")

	c, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(c.Entries) != 2 {
		t.Fatalf("Scan found %d entries, want 2", len(c.Entries))
	}

	byBase := map[string]Entry{}
	for _, e := range c.Entries {
		byBase[e.Base] = e
	}
	if byBase["base"].Dep != "" {
		t.Fatalf("base.Dep = %q, want empty", byBase["base"].Dep)
	}
	if byBase["child"].Dep != "base" {
		t.Fatalf("child.Dep = %q, want %q", byBase["child"].Dep, "base")
	}
}

func writeDsc(t *testing.T, dir, base, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, base+".dsc"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
