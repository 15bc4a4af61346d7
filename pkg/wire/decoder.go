package wire

import (
	"fmt"

	"github.com/rawbytedev/vpack"
)

// DecodeDataFrame checks the frame in data and returns the value it carries.
// The value is validated with opts before it is returned; nil opts means
// defaults. The returned Slice may alias data.
func DecodeDataFrame(data []byte, opts *vpack.Options) (vpack.Slice, error) {
	f, n, err := ParseFrame(data)
	if err != nil {
		return vpack.Slice{}, err
	}
	if n != len(data) {
		return vpack.Slice{}, fmt.Errorf("%w: %d trailing bytes", ErrLength, len(data)-n)
	}
	return f.Value(opts)
}

// Value validates and returns the payload of a data frame. Externals are
// always rejected: their pointers mean nothing outside the writing process.
func (f Frame) Value(opts *vpack.Options) (vpack.Slice, error) {
	if f.Type != TypeData {
		return vpack.Slice{}, fmt.Errorf("%w: %s", ErrFrameType, f.Type)
	}
	if err := vpack.Validate(f.Payload, foreign(opts)); err != nil {
		return vpack.Slice{}, fmt.Errorf("wire: invalid payload: %w", err)
	}
	return vpack.NewSlice(f.Payload), nil
}

// DecodeErrorFrame checks the frame in data and returns the error it
// carries.
func DecodeErrorFrame(data []byte) (*vpack.Error, error) {
	f, n, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrLength, len(data)-n)
	}
	return f.Err()
}

// Err decodes the payload of an error frame.
func (f Frame) Err() (*vpack.Error, error) {
	if f.Type != TypeError {
		return nil, fmt.Errorf("%w: %s", ErrFrameType, f.Type)
	}
	if err := vpack.Validate(f.Payload, foreign(nil)); err != nil {
		return nil, fmt.Errorf("wire: invalid error payload: %w", err)
	}
	var body struct {
		Code    int64  `vpack:"code"`
		Message string `vpack:"message"`
	}
	if err := vpack.UnmarshalSlice(vpack.NewSlice(f.Payload), &body); err != nil {
		return nil, fmt.Errorf("wire: invalid error payload: %w", err)
	}
	return &vpack.Error{Code: vpack.ErrorCode(body.Code), Msg: body.Message, Offset: -1}, nil
}

// foreign returns opts fit for bytes read from a stream.
func foreign(opts *vpack.Options) *vpack.Options {
	o := vpack.DefaultOptions()
	if opts != nil {
		o = *opts
	}
	o.DisallowExternals = true
	return &o
}
