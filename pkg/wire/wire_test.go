package wire

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rawbytedev/vpack"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, text string) vpack.Slice {
	t.Helper()
	b, err := vpack.FromJSON([]byte(text), nil)
	require.NoError(t, err)
	s, err := b.Slice()
	require.NoError(t, err)
	return s
}

func TestDataFrame(t *testing.T) {
	long := strings.Repeat("compressible ", 400)
	small := parse(t, `{"a":1,"b":[true,null,"x"]}`)
	big := parse(t, `{"text":"`+long+`","again":"`+long+`"}`)

	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(comp.String(), func(t *testing.T) {
			frame, err := EncodeDataFrame(big, comp)
			require.NoError(t, err)
			if comp != CompressionNone {
				require.Less(t, len(frame), len(big.Bytes()))
			}
			f, n, err := ParseFrame(frame)
			require.NoError(t, err)
			require.Equal(t, len(frame), n)
			require.Equal(t, comp, f.Compression)
			require.Equal(t, TypeData, f.Type)

			got, err := DecodeDataFrame(frame, nil)
			require.NoError(t, err)
			require.True(t, big.BinaryEquals(got))

			// too small to shrink, sent as is
			frame, err = EncodeDataFrame(small, comp)
			require.NoError(t, err)
			f, _, err = ParseFrame(frame)
			require.NoError(t, err)
			require.Equal(t, CompressionNone, f.Compression)
			require.Equal(t, small.Bytes(), f.Payload)
		})
	}
}

func TestFrameErrors(t *testing.T) {
	frame, err := EncodeDataFrame(parse(t, `[1,2,3]`), CompressionNone)
	require.NoError(t, err)

	_, err = DecodeDataFrame(append(append([]byte(nil), frame...), 0), nil)
	require.ErrorIs(t, err, ErrLength)
	_, err = DecodeDataFrame(frame[:len(frame)-1], nil)
	require.ErrorIs(t, err, ErrLength)

	bad := append([]byte(nil), frame...)
	bad[0] = 'X'
	_, _, err = ParseFrame(bad)
	require.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte(nil), frame...)
	bad[2] = 9
	_, _, err = ParseFrame(bad)
	require.ErrorIs(t, err, ErrVersion)

	bad = append([]byte(nil), frame...)
	bad[headerSize] ^= 0xff
	_, _, err = ParseFrame(bad)
	require.ErrorIs(t, err, ErrCRC)

	_, err = DecodeErrorFrame(frame)
	require.ErrorIs(t, err, ErrFrameType)

	_, err = EncodeDataFrame(vpack.Slice{}, CompressionNone)
	require.Error(t, err)
}

func TestFrameRejectsInvalidPayload(t *testing.T) {
	frame, err := appendFrame(nil, TypeData, CompressionNone, []byte{0x21, 0x01})
	require.NoError(t, err)
	_, err = DecodeDataFrame(frame, nil)
	require.ErrorIs(t, err, vpack.ErrValidatorInvalidLength)
}

func TestErrorFrame(t *testing.T) {
	frame, err := EncodeErrorFrame(&vpack.Error{Code: vpack.DuplicateAttributeName, Msg: "key \"a\"", Offset: -1})
	require.NoError(t, err)
	e, err := DecodeErrorFrame(frame)
	require.NoError(t, err)
	require.Equal(t, vpack.DuplicateAttributeName, e.Code)
	require.Equal(t, `key "a"`, e.Msg)
	require.ErrorIs(t, e, vpack.ErrDuplicateAttributeName)

	frame, err = EncodeErrorFrame(errors.New("disk on fire"))
	require.NoError(t, err)
	e, err = DecodeErrorFrame(frame)
	require.NoError(t, err)
	require.Equal(t, vpack.InternalError, e.Code)
	require.Equal(t, "disk on fire", e.Msg)

	_, err = DecodeDataFrame(frame, nil)
	require.ErrorIs(t, err, ErrFrameType)
}

func TestFramesRejectExternals(t *testing.T) {
	payload := []byte{0x14, 0x11, 0x44, 'c', 'o', 'd', 'e', 0x1d, 0x10, 0, 0, 0, 0, 0, 0, 0, 0x01}
	require.NoError(t, vpack.Validate(payload, nil))

	frame, err := appendFrame(nil, TypeError, CompressionNone, payload)
	require.NoError(t, err)
	_, err = DecodeErrorFrame(frame)
	require.ErrorIs(t, err, vpack.ErrValidatorInvalidType)

	frame, err = appendFrame(nil, TypeData, CompressionNone, payload)
	require.NoError(t, err)
	_, err = DecodeDataFrame(frame, nil)
	require.ErrorIs(t, err, vpack.ErrValidatorInvalidType)

	opts := vpack.DefaultOptions()
	_, err = NewReader(bytes.NewReader(frame), &opts).ReadValue()
	require.ErrorIs(t, err, vpack.ErrValidatorInvalidType)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	_, err := ParseCompression("brotli")
	require.Error(t, err)
	require.Equal(t, "unknown(7)", Compression(7).String())
	require.Equal(t, "unknown(9)", FrameType(9).String())
}

func TestStream(t *testing.T) {
	var stream bytes.Buffer
	w := NewWriter(&stream, CompressionZstd)
	docs := []string{`{"n":1}`, `[1,2,3,4,5]`, `"` + strings.Repeat("z", 2000) + `"`}
	for _, d := range docs {
		require.NoError(t, w.WriteValue(parse(t, d)))
	}
	require.NoError(t, w.WriteError(vpack.ErrTooDeepNesting))

	r := NewReader(&stream, nil)
	for _, d := range docs {
		s, err := r.ReadValue()
		require.NoError(t, err)
		require.True(t, parse(t, d).BinaryEquals(s), d)
	}
	_, err := r.ReadValue()
	require.ErrorIs(t, err, vpack.ErrTooDeepNesting)
	var ve *vpack.Error
	require.ErrorAs(t, err, &ve)

	_, err = r.ReadValue()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderSkipsCorruptFrames(t *testing.T) {
	var stream []byte
	var err error
	var offsets []int
	for _, d := range []string{`"first"`, `"second"`, `"third"`} {
		offsets = append(offsets, len(stream))
		stream, err = AppendDataFrame(stream, parse(t, d), CompressionNone)
		require.NoError(t, err)
	}
	stream[offsets[1]+headerSize+1] ^= 0x20

	var logs bytes.Buffer
	opts := vpack.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	r := NewReader(bytes.NewReader(stream), &opts)

	var got []string
	for {
		s, err := r.ReadValue()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		str, err := s.GetString()
		require.NoError(t, err)
		got = append(got, str)
	}
	require.Equal(t, []string{"first", "third"}, got)
	require.Contains(t, logs.String(), "discarding corrupt frame")
}

func TestReaderTruncated(t *testing.T) {
	frame, err := EncodeDataFrame(parse(t, `[true]`), CompressionNone)
	require.NoError(t, err)

	_, err = NewReader(bytes.NewReader(frame[:4]), nil).Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	_, err = NewReader(bytes.NewReader(frame[:len(frame)-2]), nil).Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	_, err = NewReader(bytes.NewReader([]byte("garbage!!")), nil).Next()
	require.ErrorIs(t, err, ErrBadMagic)
}

func BenchmarkDataFrame(b *testing.B) {
	s := parse(b, `{"text":"`+strings.Repeat("payload ", 256)+`","n":[1,2,3,4,5,6,7,8]}`)
	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		b.Run(comp.String(), func(b *testing.B) {
			var buf []byte
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				buf, _ = AppendDataFrame(buf[:0], s, comp)
				_, _, _ = ParseFrame(buf)
			}
		})
	}
}
