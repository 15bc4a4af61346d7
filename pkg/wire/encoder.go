package wire

import (
	"errors"

	"github.com/rawbytedev/vpack"
)

// EncodeDataFrame frames the value s. When compression does not shrink the
// payload the frame is written uncompressed.
func EncodeDataFrame(s vpack.Slice, comp Compression) ([]byte, error) {
	return AppendDataFrame(nil, s, comp)
}

// AppendDataFrame is EncodeDataFrame appending to dst.
func AppendDataFrame(dst []byte, s vpack.Slice, comp Compression) ([]byte, error) {
	payload := s.Bytes()
	if len(payload) == 0 || s.IsNone() {
		return nil, errors.New("wire: cannot frame an empty value")
	}
	return appendFrame(dst, TypeData, comp, payload)
}

// EncodeErrorFrame frames err as {"code": int, "message": string}. Errors
// not produced by vpack are sent with code InternalError.
func EncodeErrorFrame(err error) ([]byte, error) {
	return AppendErrorFrame(nil, err)
}

// AppendErrorFrame is EncodeErrorFrame appending to dst.
func AppendErrorFrame(dst []byte, err error) ([]byte, error) {
	code := vpack.CodeOf(err)
	msg := err.Error()
	var ve *vpack.Error
	if errors.As(err, &ve) {
		msg = ve.Msg
	}
	if code == 0 {
		code = vpack.InternalError
	}

	b := vpack.NewBuilder(nil)
	if e := b.OpenObject(); e != nil {
		return nil, e
	}
	if e := b.AddKeyValue("code", vpack.Int(int64(code))); e != nil {
		return nil, e
	}
	if e := b.AddKeyValue("message", vpack.String(msg)); e != nil {
		return nil, e
	}
	if e := b.Close(); e != nil {
		return nil, e
	}
	payload, e := b.Bytes()
	if e != nil {
		return nil, e
	}
	return appendFrame(dst, TypeError, CompressionNone, payload)
}
