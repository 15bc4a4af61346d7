package vpack

import (
	"bytes"
	"unicode/utf8"

	"github.com/rawbytedev/vpack/internal/common"
)

// Validate checks that data holds exactly one structurally sound value:
// every length stays inside its parent, index tables point at members,
// member counts agree with the bytes and object keys are strings, in order
// for sorted objects. Slices over unchecked input may panic on access;
// Slices over validated input do not, as long as Externals are disallowed
// for bytes from outside the process. opts may be nil.
func Validate(data []byte, opts *Options) error {
	v := validator{opts: resolveOptions(opts)}
	n, err := v.value(data, 0, 0)
	if err != nil {
		return err
	}
	if n != len(data) {
		return errorAt(ValidatorInvalidLength, n, "trailing bytes after value")
	}
	return nil
}

type validator struct {
	opts Options
}

func (v *validator) lengthErr(at int, msg string) error {
	return errorAt(ValidatorInvalidLength, at, msg)
}

// need checks that a value of size bytes fits data.
func (v *validator) need(data []byte, size uint64, at int) error {
	if size > uint64(len(data)) {
		return v.lengthErr(at, "value exceeds available bytes")
	}
	return nil
}

// value validates the value at data[0] and returns its size. base is the
// absolute offset of data[0], used for error positions.
func (v *validator) value(data []byte, base, depth int) (int, error) {
	if len(data) == 0 {
		return 0, v.lengthErr(base, "empty input")
	}
	h := data[0]
	t := typeTable[h]
	switch {
	case t == TypeNone:
		return 0, errorAt(ValidatorInvalidType, base, "unknown tag")
	case t == TypeExternal && v.opts.DisallowExternals:
		return 0, errorAt(ValidatorInvalidType, base, "externals disallowed")
	case t == TypeCustom && v.opts.DisallowCustom:
		return 0, errorAt(ValidatorInvalidType, base, "custom types disallowed")
	case t == TypeTagged && v.opts.DisallowTags:
		return 0, errorAt(ValidatorInvalidType, base, "tagged values disallowed")
	}

	if size := fixedSizes[h]; size != 0 {
		if err := v.need(data, uint64(size), base); err != nil {
			return 0, err
		}
		if t == TypeString && v.opts.ValidateUTF8Strings && !utf8.Valid(data[1:size]) {
			return 0, errorAt(InvalidUtf8Sequence, base, "invalid utf-8 in string")
		}
		return int(size), nil
	}

	switch t {
	case TypeArray, TypeObject:
		if v.opts.NestingLimit > 0 && depth >= v.opts.NestingLimit {
			return 0, errorAt(TooDeepNesting, base, "nesting limit exceeded")
		}
		return v.container(data, base, depth+1)
	case TypeString:
		if err := v.need(data, 9, base); err != nil {
			return 0, err
		}
		n := common.ReadUintLE(data[1:], 8)
		if err := v.need(data, 9+n, base); err != nil {
			return 0, err
		}
		if v.opts.ValidateUTF8Strings && !utf8.Valid(data[9:9+n]) {
			return 0, errorAt(InvalidUtf8Sequence, base, "invalid utf-8 in string")
		}
		return 9 + int(n), nil
	case TypeBinary:
		return v.lengthPrefixed(data, base, int(h-tagBinary)+1, 0)
	case TypeBCD:
		return v.lengthPrefixed(data, base, int(h-tagBCDPos)%8+1, 4)
	case TypeCustom:
		return v.lengthPrefixed(data, base, customLengthWidth(h), 0)
	case TypeTagged:
		off := tagOffset(h)
		if err := v.need(data, uint64(off)+1, base); err != nil {
			return 0, err
		}
		n, err := v.value(data[off:], base+off, depth)
		if err != nil {
			return 0, err
		}
		return off + n, nil
	}
	return 0, errorAt(ValidatorInvalidType, base, "unexpected tag")
}

// lengthPrefixed validates tag | k byte length | extra bytes | payload.
func (v *validator) lengthPrefixed(data []byte, base, k, extra int) (int, error) {
	if err := v.need(data, uint64(1+k), base); err != nil {
		return 0, err
	}
	n := common.ReadUintLE(data[1:], k)
	size := uint64(1+k+extra) + n
	if n > uint64(len(data)) || size > uint64(len(data)) {
		return 0, v.lengthErr(base, "payload exceeds available bytes")
	}
	return int(size), nil
}

func (v *validator) container(data []byte, base, depth int) (int, error) {
	h := data[0]
	switch {
	case h == tagEmptyArray || h == tagEmptyObject:
		return 1, nil
	case h == tagCompactArray || h == tagCompactObject:
		return v.compact(data, base, depth)
	case h <= 0x05:
		return v.equalArray(data, base, depth)
	}
	return v.indexed(data, base, depth)
}

// byteLength reads and bounds the total length stored after the tag.
func (v *validator) byteLength(data []byte, base, w, minSize int) (int, error) {
	if err := v.need(data, uint64(1+w), base); err != nil {
		return 0, err
	}
	bl := common.ReadUintLE(data[1:], w)
	if bl < uint64(minSize) {
		return 0, v.lengthErr(base, "container too short")
	}
	if err := v.need(data, bl, base); err != nil {
		return 0, err
	}
	return int(bl), nil
}

func (v *validator) compact(data []byte, base, depth int) (int, error) {
	bl64, vl := common.ReadVarUint(data[1:])
	if vl == 0 {
		return 0, v.lengthErr(base, "truncated byte length")
	}
	if bl64 < uint64(2+vl) {
		return 0, v.lengthErr(base, "container too short")
	}
	if err := v.need(data, bl64, base); err != nil {
		return 0, err
	}
	bl := int(bl64)
	n, nl := common.ReadVarUintReversed(data[:bl], bl-1)
	end := bl - nl
	if nl == 0 || end < 1+vl {
		return 0, v.lengthErr(base, "bad member count")
	}
	// every member takes at least one byte
	avail := uint64(end - 1 - vl)
	if data[0] == tagCompactObject {
		avail /= 2
	}
	if n > avail {
		return 0, v.lengthErr(base, "member count exceeds byte length")
	}
	members := int(n)
	if data[0] == tagCompactObject {
		members *= 2
	}
	off := 1 + vl
	for i := 0; i < members; i++ {
		if off >= end {
			return 0, v.lengthErr(base+off, "fewer members than counted")
		}
		if data[0] == tagCompactObject && i%2 == 0 && typeTable[data[off]] != TypeString {
			return 0, errorAt(ValidatorInvalidType, base+off, "object key must be a string")
		}
		size, err := v.value(data[off:end], base+off, depth)
		if err != nil {
			return 0, err
		}
		off += size
	}
	if off != end {
		return 0, v.lengthErr(base+off, "bytes left after last member")
	}
	return bl, nil
}

func (v *validator) equalArray(data []byte, base, depth int) (int, error) {
	w := widthOfIndexed(data[0])
	bl, err := v.byteLength(data, base, w, 1+w+1)
	if err != nil {
		return 0, err
	}
	off := 9
	for _, c := range []int{2, 3, 5} {
		if c >= 1+w && c < bl && data[c] != 0 {
			off = c
			break
		}
	}
	if off >= bl {
		return 0, v.lengthErr(base, "array without members")
	}
	item, err := v.value(data[off:bl], base+off, depth)
	if err != nil {
		return 0, err
	}
	if (bl-off)%item != 0 {
		return 0, v.lengthErr(base, "members differ in size")
	}
	for p := off + item; p < bl; p += item {
		size, err := v.value(data[p:bl], base+p, depth)
		if err != nil {
			return 0, err
		}
		if size != item {
			return 0, v.lengthErr(base+p, "members differ in size")
		}
	}
	return bl, nil
}

func (v *validator) indexed(data []byte, base, depth int) (int, error) {
	h := data[0]
	w := widthOfIndexed(h)
	header := 1 + 2*w
	minSize := header
	if w == 8 {
		header = 9
		minSize = 17
	}
	bl, err := v.byteLength(data, base, w, minSize)
	if err != nil {
		return 0, err
	}
	var n uint64
	if w < 8 {
		n = common.ReadUintLE(data[1+w:], w)
	} else {
		n = common.ReadUintLE(data[bl-8:], 8)
	}
	tail := 0
	if w == 8 {
		tail = 8
	}
	if n == 0 || n > uint64(bl) || uint64(header)+n*uint64(w)+uint64(tail) > uint64(bl) {
		return 0, v.lengthErr(base, "bad member count")
	}
	indexBase := bl - tail - int(n)*w
	object := typeTable[h] == TypeObject
	sorted := h >= tagObjectSorted && h <= 0x0e
	var prev []byte
	for i := 0; i < int(n); i++ {
		off := int(common.ReadUintLE(data[indexBase+i*w:], w))
		if off < header || off >= indexBase {
			return 0, v.lengthErr(base+indexBase+i*w, "index entry out of range")
		}
		if object && typeTable[data[off]] != TypeString {
			return 0, errorAt(ValidatorInvalidType, base+off, "object key must be a string")
		}
		size, err := v.value(data[off:indexBase], base+off, depth)
		if err != nil {
			return 0, err
		}
		if sorted {
			key, _ := NewSlice(data[off : off+size]).GetStringBytes()
			if i > 0 && bytes.Compare(prev, key) > 0 {
				return 0, errorAt(ValidatorInvalidType, base+indexBase+i*w, "sorted object keys out of order")
			}
			prev = key
		}
		if object {
			voff := off + size
			if voff >= indexBase {
				return 0, v.lengthErr(base+off, "key without value")
			}
			if _, err := v.value(data[voff:indexBase], base+voff, depth); err != nil {
				return 0, err
			}
		}
	}
	return bl, nil
}
