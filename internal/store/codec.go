package store

import (
	"github.com/klauspost/compress/zstd"
)

// maxCompressedLen is the largest compressed payload the i16 length field in
// an IndexEntry can represent.
const maxCompressedLen = 32767

// Codec compresses and decompresses single, independent blocks. Each call to
// Compress produces a standalone payload: there is no cross-block state or
// dictionary.
type Codec interface {
	// Compress appends the compressed form of src to dst and returns the
	// extended slice. The compressed length (len(result)-len(dst)) must fit
	// in a signed 16-bit integer; callers enforce maxCompressedLen.
	Compress(dst, src []byte) ([]byte, error)

	// Decompress decompresses src into dst, which must have length equal to
	// the original block size. It is an error if the decompressed length
	// does not equal len(dst).
	Decompress(dst, src []byte) error
}

// zstdCodec implements Codec with a pair of reusable zstd encoder/decoder:
// one compressor instance per open store rather than per call.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderCRC(false),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, ioErrorf("zstd.NewWriter", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, ioErrorf("zstd.NewReader", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, dst), nil
}

func (c *zstdCodec) Decompress(dst, src []byte) error {
	out, err := c.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return formatErrorf("decompress: %w", err)
	}
	if len(out) != len(dst) {
		return formatErrorf("decompress: got %d bytes, want %d", len(out), len(dst))
	}
	if &out[0] != &dst[0] {
		// DecodeAll had to grow the buffer; copy back into the caller's
		// fixed-size slice.
		copy(dst, out)
	}
	return nil
}

func (c *zstdCodec) Close() {
	c.enc.Close()
	c.dec.Close()
}
