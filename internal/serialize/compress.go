// Package serialize holds the zstd codecs used for compressed dataset files
// and compressed action results.
package serialize

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/hugr-lab/tabflight/internal/msgpack"
)

// Compressor handles ZStandard compression.
// Create once and reuse; EncodeAll is goroutine-safe.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor creates a reusable ZStandard compressor at SpeedDefault.
// Caller must call Close() when done.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress compresses data. Empty input yields empty output.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Close releases compressor resources.
func (c *Compressor) Close() error {
	if c.encoder != nil {
		return c.encoder.Close()
	}
	return nil
}

// Decompressor handles ZStandard decompression.
// Create once and reuse; DecodeAll is goroutine-safe.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor creates a reusable ZStandard decompressor.
// Caller must call Close() when done.
func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress decompresses ZStandard data. Empty input yields empty output.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return []byte{}, nil
	}
	decompressed, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return decompressed, nil
}

// Close releases decompressor resources.
func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}

// Frame is a compressed payload together with its uncompressed length.
// It is encoded as the MessagePack array [length, data].
type Frame struct {
	_msgpack struct{} `msgpack:",as_array"`

	Length uint32 `msgpack:"length"`
	Data   []byte `msgpack:"data"`
}

// CompressFrame compresses data and encodes it as a MessagePack Frame.
func CompressFrame(data []byte) ([]byte, error) {
	c, err := NewCompressor()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	compressed, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	return msgpack.Encode(&Frame{
		Length: uint32(len(data)),
		Data:   compressed,
	})
}

// DecompressFrame reverses CompressFrame and checks the recorded length.
func DecompressFrame(frame []byte) ([]byte, error) {
	var f Frame
	if err := msgpack.Decode(frame, &f); err != nil {
		return nil, err
	}

	d, err := NewDecompressor()
	if err != nil {
		return nil, err
	}
	defer d.Close()

	data, err := d.Decompress(f.Data)
	if err != nil {
		return nil, err
	}
	if len(data) != int(f.Length) {
		return nil, fmt.Errorf("frame length mismatch: header %d, got %d", f.Length, len(data))
	}
	return data, nil
}
