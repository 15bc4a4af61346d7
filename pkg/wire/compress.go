package wire

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how a frame payload is compressed. The values are
// stored in frame flags.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
	CompressionLZ4  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCompression maps a name from String back to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return 0, fmt.Errorf("wire: unknown compression %q", name)
}

// errIncompressible makes the frame fall back to an uncompressed payload.
var errIncompressible = errors.New("wire: payload does not compress")

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, errIncompressible
		}
		return out, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("wire: lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return nil, errIncompressible
		}
		return dst[:n], nil
	}
	return nil, fmt.Errorf("wire: unsupported compression %s", c)
}

func decompress(c Compression, data []byte, rawLen int) ([]byte, error) {
	switch c {
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("wire: zstd decompress: %w", err)
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, want %d", ErrLength, len(out), rawLen)
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("wire: lz4 decompress: %w", err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, want %d", ErrLength, n, rawLen)
		}
		return out, nil
	}
	return nil, fmt.Errorf("wire: unsupported compression %s", c)
}
