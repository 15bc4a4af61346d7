package vpack

import (
	"time"
)

// Value describes one scalar, or the intent to open a container, for
// Builder.Add. It is transient and never stored.
type Value struct {
	typ   ValueType
	b     bool
	i     int64
	u     uint64
	d     float64
	s     string
	raw   []byte
	slice Slice
	tag   uint64
	inner *Value
	// isSlice marks values carrying pre-encoded bytes.
	isSlice bool
}

// Type reports the kind of value described.
func (v Value) Type() ValueType { return v.typ }

func Null() Value            { return Value{typ: TypeNull} }
func Bool(b bool) Value      { return Value{typ: TypeBool, b: b} }
func Double(d float64) Value { return Value{typ: TypeDouble, d: d} }
func Int(i int64) Value      { return Value{typ: TypeInt, i: i} }
func UInt(u uint64) Value    { return Value{typ: TypeUInt, u: u} }
func String(s string) Value  { return Value{typ: TypeString, s: s} }
func MinKey() Value          { return Value{typ: TypeMinKey} }
func MaxKey() Value          { return Value{typ: TypeMaxKey} }

// SmallInt describes an integer that must fit the inline range -6..9.
func SmallInt(i int64) Value { return Value{typ: TypeSmallInt, i: i} }

// Binary describes a raw byte blob. The bytes are copied when added.
func Binary(b []byte) Value { return Value{typ: TypeBinary, raw: b} }

// UTCDate describes a point in time as milliseconds since the Unix epoch.
func UTCDate(ms int64) Value { return Value{typ: TypeUTCDate, i: ms} }

// Time describes t as a UTCDate with millisecond precision.
func Time(t time.Time) Value { return UTCDate(t.UnixMilli()) }

// ArrayOpen is the intent to open an array; Add(ArrayOpen()) == OpenArray().
func ArrayOpen() Value { return Value{typ: TypeArray} }

// ObjectOpen is the intent to open an object.
func ObjectOpen() Value { return Value{typ: TypeObject} }

// External describes a reference to the value s points at. Only the address
// is stored: s must stay reachable and unmodified while the built bytes are
// read.
func External(s Slice) Value { return Value{typ: TypeExternal, slice: s} }

// Custom describes an application defined value. raw must be a complete
// value starting with a tag in 0xf0-0xff.
func Custom(raw []byte) Value { return Value{typ: TypeCustom, raw: raw} }

// Tagged wraps v with a numeric tag.
func Tagged(tag uint64, v Value) Value {
	return Value{typ: TypeTagged, tag: tag, inner: &v}
}

// SliceValue appends the already encoded value s as is.
func SliceValue(s Slice) Value {
	return Value{typ: s.Type(), slice: s, isSlice: true}
}
