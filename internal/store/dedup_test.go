package store

import "testing"

// constantHasher always reports the same one-byte hash, forcing every
// dedup probe in a test to go through the full content comparison so the
// HashColl counter path gets exercised deterministically.
type constantHasher struct{}

func (constantHasher) Hash(block []byte) uint8 { return 7 }

func TestAppendCountsHashCollisions(t *testing.T) {
	dir := t.TempDir()

	base, err := Create(dir, "base", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	base.hasher = constantHasher{}
	if err := base.AppendBlock(block('a', 16)); err != nil {
		t.Fatal(err)
	}
	if err := base.Close(); err != nil {
		t.Fatal(err)
	}

	child, err := Create(dir, "child", "base", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	defer child.Close()
	child.hasher = constantHasher{}
	for _, dep := range child.deps {
		dep.hasher = constantHasher{}
	}

	// Same one-byte hash as base[0], but different content: the dedup probe
	// must fall through to a local write and record the collision.
	if err := child.AppendBlock(block('z', 16)); err != nil {
		t.Fatal(err)
	}

	stats := child.GetWriteStats()
	if stats.HashColl != 1 {
		t.Fatalf("want HashColl=1, got %+v", stats)
	}
	if stats.New != 1 {
		t.Fatalf("want New=1 (the block still had to be written locally), got %+v", stats)
	}
}

func TestAppendDoubleReferenceSkipped(t *testing.T) {
	dir := t.TempDir()

	base, err := Create(dir, "base", "", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	base.hasher = constantHasher{}
	if err := base.AppendBlock(block('a', 16)); err != nil {
		t.Fatal(err)
	}
	if err := base.Close(); err != nil {
		t.Fatal(err)
	}

	mid, err := Create(dir, "mid", "base", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	mid.hasher = constantHasher{}
	for _, dep := range mid.deps {
		dep.hasher = constantHasher{}
	}
	// mid[0] becomes a back-reference into base[0].
	if err := mid.AppendBlock(block('a', 16)); err != nil {
		t.Fatal(err)
	}
	if err := mid.Close(); err != nil {
		t.Fatal(err)
	}

	leaf, err := Create(dir, "leaf", "mid", WithBlockSize(16), WithGroupSize(4))
	if err != nil {
		t.Fatal(err)
	}
	defer leaf.Close()
	leaf.hasher = constantHasher{}
	for _, dep := range leaf.deps {
		dep.hasher = constantHasher{}
	}

	// leaf[0] shares its (constant) hash with both base[0] and mid[0], but
	// has different content. Farthest-to-nearest probing hits base first
	// (content mismatch, HashColl), then mid, whose stored entry for this
	// index is itself a back-reference into base: only depth-1 references
	// are ever recorded, so that candidate is skipped as a double reference
	// and the block is written locally.
	if err := leaf.AppendBlock(block('z', 16)); err != nil {
		t.Fatal(err)
	}

	stats := leaf.GetWriteStats()
	if stats.DblRefs != 1 {
		t.Fatalf("want DblRefs=1 (mid[0] is itself a back-reference), got %+v", stats)
	}
	if stats.HashColl != 1 {
		t.Fatalf("want HashColl=1 (base[0] shares the hash but not the content), got %+v", stats)
	}
	if stats.New != 1 {
		t.Fatalf("want New=1 (no usable match survived the probe), got %+v", stats)
	}
}
