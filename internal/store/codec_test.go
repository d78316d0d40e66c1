package store

import "testing"

func TestZstdCodecRoundTrip(t *testing.T) {
	c, err := newZstdCodec()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	src := bytes16('q')
	compressed, err := c.Compress(nil, src)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]byte, len(src))
	if err := c.Decompress(dst, compressed); err != nil {
		t.Fatal(err)
	}
	if string(dst) != string(src) {
		t.Fatalf("decompress = %q, want %q", dst, src)
	}
}

func bytes16(b byte) []byte {
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func TestXxhashProbeDeterministic(t *testing.T) {
	var h xxhashProbe
	a := h.Hash(bytes16('a'))
	b := h.Hash(bytes16('a'))
	if a != b {
		t.Fatalf("hash of identical blocks differs: %d vs %d", a, b)
	}
}
