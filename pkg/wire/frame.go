// Package wire frames single vpack values for storage and transport.
//
// Frame layout (little endian):
//
//	magic "VP" | version | type | flags | uint32 total length |
//	[uint32 raw length, compressed frames only] | payload | uint32 CRC32
//
// The CRC covers every byte after the magic up to the CRC itself. The low
// bits of flags select the payload compression.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	magic0  = 'V'
	magic1  = 'P'
	Version = 1

	headerSize  = 9
	rawLenSize  = 4
	trailerSize = 4

	// MaxFrameSize bounds the total length a Reader accepts.
	MaxFrameSize = 64 << 20

	compressionMask = 0x03
)

var (
	ErrBadMagic     = errors.New("wire: bad magic")
	ErrVersion      = errors.New("wire: unsupported version")
	ErrLength       = errors.New("wire: length mismatch")
	ErrCRC          = errors.New("wire: crc mismatch")
	ErrFrameType    = errors.New("wire: unexpected frame type")
	ErrFrameTooLong = errors.New("wire: frame exceeds maximum size")
)

// FrameType tells what a frame's payload holds.
type FrameType byte

const (
	// TypeData carries one encoded value.
	TypeData FrameType = 1
	// TypeError carries an object {"code": int, "message": string}.
	TypeError FrameType = 2
)

func (t FrameType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeError:
		return "error"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// Frame is a decoded, CRC checked frame. Payload is decompressed.
type Frame struct {
	Type        FrameType
	Compression Compression
	Payload     []byte
}

// appendFrame writes a complete frame for payload to dst.
func appendFrame(dst []byte, t FrameType, comp Compression, payload []byte) ([]byte, error) {
	body := payload
	if comp != CompressionNone {
		c, err := compress(comp, payload)
		switch {
		case errors.Is(err, errIncompressible):
			comp = CompressionNone
		case err != nil:
			return nil, err
		default:
			body = c
		}
	}

	start := len(dst)
	dst = append(dst, magic0, magic1, Version, byte(t), byte(comp), 0, 0, 0, 0)
	if comp != CompressionNone {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	}
	dst = append(dst, body...)

	total := len(dst) - start + trailerSize
	binary.LittleEndian.PutUint32(dst[start+5:], uint32(total))
	crc := crc32.ChecksumIEEE(dst[start+2:])
	return binary.LittleEndian.AppendUint32(dst, crc), nil
}

// frameLength reads the total length from a frame header.
func frameLength(header []byte) (int, error) {
	if len(header) < headerSize {
		return 0, ErrLength
	}
	if header[0] != magic0 || header[1] != magic1 {
		return 0, ErrBadMagic
	}
	if header[2] != Version {
		return 0, fmt.Errorf("%w: %d", ErrVersion, header[2])
	}
	n := int(binary.LittleEndian.Uint32(header[5:9]))
	if n < headerSize+trailerSize {
		return 0, ErrLength
	}
	if n > MaxFrameSize {
		return 0, ErrFrameTooLong
	}
	return n, nil
}

// ParseFrame checks and decodes the frame at the start of data and returns
// it with the number of bytes it occupies.
func ParseFrame(data []byte) (Frame, int, error) {
	n, err := frameLength(data)
	if err != nil {
		return Frame{}, 0, err
	}
	if n > len(data) {
		return Frame{}, 0, ErrLength
	}
	data = data[:n]
	want := binary.LittleEndian.Uint32(data[n-trailerSize:])
	if crc32.ChecksumIEEE(data[2:n-trailerSize]) != want {
		return Frame{}, n, ErrCRC
	}

	f := Frame{Type: FrameType(data[3]), Compression: Compression(data[4] & compressionMask)}
	body := data[headerSize : n-trailerSize]
	if f.Compression == CompressionNone {
		f.Payload = body
		return f, n, nil
	}
	if len(body) < rawLenSize {
		return Frame{}, n, ErrLength
	}
	raw := int(binary.LittleEndian.Uint32(body))
	if raw > MaxFrameSize {
		return Frame{}, n, ErrFrameTooLong
	}
	f.Payload, err = decompress(f.Compression, body[rawLenSize:], raw)
	if err != nil {
		return Frame{}, n, err
	}
	return f, n, nil
}
