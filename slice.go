package vpack

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
	"unsafe"

	"github.com/rawbytedev/vpack/internal/common"
)

// Slice is a read-only view of one binary value. It does not copy or own the
// bytes it reads: data starts at the value's tag and may run past the end of
// the value. The backing array stays alive as long as the Slice does; the
// caller must not modify it while the Slice is in use.
type Slice struct {
	data []byte
}

var (
	noneBytes    = []byte{tagNone}
	nullBytes    = []byte{tagNull}
	illegalBytes = []byte{tagIllegal}
)

// NewSlice returns a view of the value starting at b[0].
func NewSlice(b []byte) Slice { return Slice{data: b} }

// NoneSlice returns the "not found" marker.
func NoneSlice() Slice { return Slice{data: noneBytes} }

// NullSlice returns a Slice holding null.
func NullSlice() Slice { return Slice{data: nullBytes} }

// IllegalSlice returns a Slice holding the Illegal marker.
func IllegalSlice() Slice { return Slice{data: illegalBytes} }

func (s Slice) head() byte {
	if len(s.data) == 0 {
		return tagNone
	}
	return s.data[0]
}

// Head returns the tag byte.
func (s Slice) Head() byte { return s.head() }

// Type returns the value's kind.
func (s Slice) Type() ValueType { return typeTable[s.head()] }

// Bytes returns exactly the bytes of this value.
func (s Slice) Bytes() []byte {
	if len(s.data) == 0 {
		return nil
	}
	return s.data[:s.ByteSize()]
}

// ByteSize returns the total encoded size of the value, tag included. It is
// computed from the tag and length fields, never stored separately.
func (s Slice) ByteSize() int {
	h := s.head()
	if n := fixedSizes[h]; n != 0 {
		return int(n)
	}
	switch typeTable[h] {
	case TypeArray, TypeObject:
		if h == tagCompactArray || h == tagCompactObject {
			v, _ := common.ReadVarUint(s.data[1:])
			return int(v)
		}
		return int(common.ReadUintLE(s.data[1:], widthOfIndexed(h)))
	case TypeString:
		return 9 + int(common.ReadUintLE(s.data[1:], 8))
	case TypeBinary:
		k := int(h-tagBinary) + 1
		return 1 + k + int(common.ReadUintLE(s.data[1:], k))
	case TypeBCD:
		k := int(h-tagBCDPos)%8 + 1
		return 1 + k + 4 + int(common.ReadUintLE(s.data[1:], k))
	case TypeTagged:
		off := tagOffset(h)
		return off + Slice{data: s.data[off:]}.ByteSize()
	case TypeCustom:
		w := customLengthWidth(h)
		return 1 + w + int(common.ReadUintLE(s.data[1:], w))
	}
	return 1
}

func tagOffset(h byte) int {
	if h == tagTagged1 {
		return 2
	}
	return 9
}

func (s Slice) IsNone() bool     { return s.Type() == TypeNone }
func (s Slice) IsIllegal() bool  { return s.Type() == TypeIllegal }
func (s Slice) IsNull() bool     { return s.head() == tagNull }
func (s Slice) IsBool() bool     { return s.Type() == TypeBool }
func (s Slice) IsTrue() bool     { return s.head() == tagTrue }
func (s Slice) IsFalse() bool    { return s.head() == tagFalse }
func (s Slice) IsArray() bool    { return s.Type() == TypeArray }
func (s Slice) IsObject() bool   { return s.Type() == TypeObject }
func (s Slice) IsDouble() bool   { return s.head() == tagDouble }
func (s Slice) IsUTCDate() bool  { return s.head() == tagUTCDate }
func (s Slice) IsExternal() bool { return s.head() == tagExternal }
func (s Slice) IsMinKey() bool   { return s.head() == tagMinKey }
func (s Slice) IsMaxKey() bool   { return s.head() == tagMaxKey }
func (s Slice) IsInt() bool      { return s.Type() == TypeInt }
func (s Slice) IsUInt() bool     { return s.Type() == TypeUInt }
func (s Slice) IsSmallInt() bool { return s.Type() == TypeSmallInt }
func (s Slice) IsString() bool   { return s.Type() == TypeString }
func (s Slice) IsBinary() bool   { return s.Type() == TypeBinary }
func (s Slice) IsBCD() bool      { return s.Type() == TypeBCD }
func (s Slice) IsCustom() bool   { return s.Type() == TypeCustom }
func (s Slice) IsTagged() bool   { return s.Type() == TypeTagged }

func (s Slice) IsEmptyArray() bool  { return s.head() == tagEmptyArray }
func (s Slice) IsEmptyObject() bool { return s.head() == tagEmptyObject }

// IsInteger reports Int, UInt and SmallInt values.
func (s Slice) IsInteger() bool {
	switch s.Type() {
	case TypeInt, TypeUInt, TypeSmallInt:
		return true
	}
	return false
}

// IsNumber reports integers and doubles.
func (s Slice) IsNumber() bool { return s.IsInteger() || s.IsDouble() }

// IsSorted reports an object whose index table is ordered by key.
func (s Slice) IsSorted() bool {
	h := s.head()
	return h >= tagObjectSorted && h <= 0x0e
}

func (s Slice) mismatch(want string) *Error {
	return errorf(ValueTypeMismatch, "expecting %s, got %s", want, s.Type())
}

// GetBool returns the value of a Bool.
func (s Slice) GetBool() (bool, error) {
	switch s.head() {
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	}
	return false, s.mismatch("bool")
}

// GetDouble returns the value of a Double.
func (s Slice) GetDouble() (float64, error) {
	if !s.IsDouble() {
		return 0, s.mismatch("double")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

func smallIntValue(h byte) int64 {
	if h <= 0x39 {
		return int64(h) - tagSmallIntPos
	}
	return int64(h) - 0x40
}

// GetInt returns any integer value as int64. A UInt above math.MaxInt64
// fails with NumberOutOfRange.
func (s Slice) GetInt() (int64, error) {
	h := s.head()
	switch s.Type() {
	case TypeInt:
		return common.ReadIntLE(s.data[1:], int(h-tagInt)+1), nil
	case TypeUInt:
		u := common.ReadUintLE(s.data[1:], int(h-tagUInt)+1)
		if u > math.MaxInt64 {
			return 0, errorf(NumberOutOfRange, "%d does not fit int64", u)
		}
		return int64(u), nil
	case TypeSmallInt:
		return smallIntValue(h), nil
	}
	return 0, s.mismatch("integer")
}

// GetUInt returns any non-negative integer value as uint64.
func (s Slice) GetUInt() (uint64, error) {
	h := s.head()
	switch s.Type() {
	case TypeUInt:
		return common.ReadUintLE(s.data[1:], int(h-tagUInt)+1), nil
	case TypeInt, TypeSmallInt:
		v, _ := s.GetInt()
		if v < 0 {
			return 0, errorf(NumberOutOfRange, "%d is negative", v)
		}
		return uint64(v), nil
	}
	return 0, s.mismatch("integer")
}

// GetSmallInt returns the value of a SmallInt, or any integer in int64 range.
func (s Slice) GetSmallInt() (int64, error) { return s.GetInt() }

// GetNumber returns any numeric value converted to float64.
func (s Slice) GetNumber() (float64, error) {
	switch s.Type() {
	case TypeDouble:
		return s.GetDouble()
	case TypeInt, TypeSmallInt:
		v, _ := s.GetInt()
		return float64(v), nil
	case TypeUInt:
		v, _ := s.GetUInt()
		return float64(v), nil
	}
	return 0, s.mismatch("number")
}

// GetUTCDate returns milliseconds since the Unix epoch.
func (s Slice) GetUTCDate() (int64, error) {
	if !s.IsUTCDate() {
		return 0, s.mismatch("utc-date")
	}
	return int64(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

// GetTime returns a UTCDate as a UTC time.Time.
func (s Slice) GetTime() (time.Time, error) {
	ms, err := s.GetUTCDate()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// GetStringBytes returns the bytes of a String without copying.
func (s Slice) GetStringBytes() ([]byte, error) {
	h := s.head()
	switch {
	case h >= tagShortString && h < tagLongString:
		n := int(h - tagShortString)
		return s.data[1 : 1+n], nil
	case h == tagLongString:
		n := int(common.ReadUintLE(s.data[1:], 8))
		return s.data[9 : 9+n], nil
	}
	return nil, s.mismatch("string")
}

// GetString returns a copy of a String.
func (s Slice) GetString() (string, error) {
	b, err := s.GetStringBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetStringUnsafe returns a String aliasing the underlying bytes. The result
// is only valid while those bytes stay unmodified.
func (s Slice) GetStringUnsafe() (string, error) {
	b, err := s.GetStringBytes()
	if err != nil || len(b) == 0 {
		return "", err
	}
	return unsafe.String(&b[0], len(b)), nil
}

// GetStringLength returns the byte length of a String.
func (s Slice) GetStringLength() (int, error) {
	b, err := s.GetStringBytes()
	return len(b), err
}

// GetBinary returns the payload of a Binary without copying.
func (s Slice) GetBinary() ([]byte, error) {
	h := s.head()
	if s.Type() != TypeBinary {
		return nil, s.mismatch("binary")
	}
	k := int(h-tagBinary) + 1
	n := int(common.ReadUintLE(s.data[1:], k))
	return s.data[1+k : 1+k+n], nil
}

// GetBinaryLength returns the payload length of a Binary.
func (s Slice) GetBinaryLength() (int, error) {
	b, err := s.GetBinary()
	return len(b), err
}

// Length returns the number of members of an Array or Object.
func (s Slice) Length() (int, error) {
	if !s.IsArray() && !s.IsObject() {
		return 0, s.mismatch("array or object")
	}
	return s.layout().n, nil
}

// GetExternal returns the value an External points to.
func (s Slice) GetExternal() (Slice, error) {
	if !s.IsExternal() {
		return Slice{}, s.mismatch("external")
	}
	addr := uintptr(binary.LittleEndian.Uint64(s.data[1:9]))
	return externalSlice(unsafe.Pointer(addr)), nil
}

// ResolveExternal follows External values until it reaches a non-External.
// Non-External slices are returned unchanged.
func (s Slice) ResolveExternal() Slice {
	for s.IsExternal() {
		s, _ = s.GetExternal()
	}
	return s
}

// externalSlice rebuilds a bounded Slice from the address stored in an
// External by reading just enough header bytes to learn the value's size.
func externalSlice(p unsafe.Pointer) Slice {
	n := 1
	for {
		b := unsafe.Slice((*byte)(p), n)
		need := prefixNeeded(b)
		if need <= n {
			size := Slice{data: b}.ByteSize()
			return Slice{data: unsafe.Slice((*byte)(p), size)}
		}
		n = need
	}
}

// prefixNeeded returns how many leading bytes ByteSize must see for b.
func prefixNeeded(b []byte) int {
	h := b[0]
	if fixedSizes[h] != 0 {
		return 1
	}
	switch typeTable[h] {
	case TypeArray, TypeObject:
		if h == tagCompactArray || h == tagCompactObject {
			for i := 1; i < len(b); i++ {
				if b[i]&0x80 == 0 {
					return i + 1
				}
			}
			return len(b) + 1
		}
		return 1 + widthOfIndexed(h)
	case TypeString:
		return 9
	case TypeBinary:
		return 2 + int(h-tagBinary)
	case TypeBCD:
		return 2 + int(h-tagBCDPos)%8
	case TypeCustom:
		return 1 + customLengthWidth(h)
	case TypeTagged:
		off := tagOffset(h)
		if len(b) <= off {
			return off + 1
		}
		return off + prefixNeeded(b[off:])
	}
	return 1
}

// Value strips any tags and returns the wrapped value.
func (s Slice) Value() Slice {
	for s.IsTagged() {
		s = Slice{data: s.data[tagOffset(s.head()):]}
	}
	return s
}

// FirstTag returns the outermost tag number, or 0 when s is untagged.
func (s Slice) FirstTag() uint64 {
	switch s.head() {
	case tagTagged1:
		return uint64(s.data[1])
	case tagTagged8:
		return binary.LittleEndian.Uint64(s.data[1:9])
	}
	return 0
}

// Tags returns all tag numbers from the outside in.
func (s Slice) Tags() []uint64 {
	var tags []uint64
	for s.IsTagged() {
		tags = append(tags, s.FirstTag())
		s = Slice{data: s.data[tagOffset(s.head()):]}
	}
	return tags
}

// HasTag reports whether tag is one of the value's tags.
func (s Slice) HasTag(tag uint64) bool {
	for s.IsTagged() {
		if s.FirstTag() == tag {
			return true
		}
		s = Slice{data: s.data[tagOffset(s.head()):]}
	}
	return false
}

// BinaryEquals reports whether both values have identical encodings.
func (s Slice) BinaryEquals(other Slice) bool {
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// String renders the value as JSON for debugging. Values without a JSON
// form are converted rather than failing.
func (s Slice) String() string {
	opts := DefaultOptions()
	opts.UnsupportedTypeBehavior = ConvertUnsupportedType
	opts.AllowNonFiniteNumbers = true
	out, err := DumpString(s, &opts)
	if err != nil {
		return "<" + s.Type().String() + ": " + err.Error() + ">"
	}
	return out
}
