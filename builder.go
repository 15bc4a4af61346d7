package vpack

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/rawbytedev/vpack/internal/common"
)

// Layout selects how Close encodes a container.
type Layout uint8

const (
	// LayoutAuto writes an index table once a container holds
	// CompactThreshold members, unless the BuildUnindexed options say
	// otherwise.
	LayoutAuto Layout = iota
	// LayoutIndexed always writes an index table.
	LayoutIndexed
	// LayoutCompact never writes an index table.
	LayoutCompact
)

// frame is one open container.
type frame struct {
	start  int
	object bool
	layout Layout
	// offsets holds member start positions relative to start; for objects
	// they point at keys.
	offsets []int
	// keyWritten is set between a key and its value.
	keyWritten bool
}

// Builder writes exactly one value into a Buffer. Containers are opened and
// closed explicitly; their headers are reserved at open and rewritten in
// place at close. A Builder is not safe for concurrent use.
type Builder struct {
	opts      Options
	buf       *Buffer
	frames    []frame
	sealed    bool
	borrowed  bool
	externals [][]byte
}

// NewBuilder returns an empty Builder. opts is copied; nil means defaults.
func NewBuilder(opts *Options) *Builder {
	return &Builder{opts: resolveOptions(opts), buf: NewBuffer(64)}
}

// Options returns a copy of the builder's options.
func (b *Builder) Options() Options { return b.opts }

// IsSealed reports whether the root value is complete.
func (b *Builder) IsSealed() bool { return b.sealed }

// IsEmpty reports whether nothing has been written yet.
func (b *Builder) IsEmpty() bool { return b.buf.Len() == 0 }

// Depth returns the number of open containers.
func (b *Builder) Depth() int { return len(b.frames) }

// IsOpenArray reports whether the innermost open container is an Array.
func (b *Builder) IsOpenArray() bool {
	return len(b.frames) > 0 && !b.frames[len(b.frames)-1].object
}

// IsOpenObject reports whether the innermost open container is an Object.
func (b *Builder) IsOpenObject() bool {
	return len(b.frames) > 0 && b.frames[len(b.frames)-1].object
}

// Start returns the offset of the root value.
func (b *Builder) Start() (int, error) {
	if !b.sealed {
		return 0, ErrBuilderNotSealed
	}
	return 0, nil
}

// Size returns the byte size of the root value.
func (b *Builder) Size() (int, error) {
	if !b.sealed {
		return 0, ErrBuilderNotSealed
	}
	return b.buf.Len(), nil
}

// Slice returns a view of the root value. The view stays valid after Reset:
// the builder moves to fresh storage rather than overwrite borrowed bytes.
func (b *Builder) Slice() (Slice, error) {
	if !b.sealed {
		return Slice{}, ErrBuilderNotSealed
	}
	b.borrowed = true
	return Slice{data: b.buf.Bytes()}, nil
}

// Bytes returns the encoded root value without copying.
func (b *Builder) Bytes() ([]byte, error) {
	if !b.sealed {
		return nil, ErrBuilderNotSealed
	}
	b.borrowed = true
	return b.buf.Bytes(), nil
}

// Reset discards all state so the Builder can be reused.
func (b *Builder) Reset() {
	if b.borrowed {
		b.buf = NewBuffer(b.buf.Cap())
	} else {
		b.buf.Reset()
	}
	b.frames = b.frames[:0]
	b.sealed = false
	b.borrowed = false
	b.externals = nil
}

// Steal hands the Buffer to the caller and resets the Builder onto a fresh
// one. Targets of External values are no longer kept alive by the Builder.
func (b *Builder) Steal() *Buffer {
	out := b.buf
	b.buf = NewBuffer(64)
	b.borrowed = false
	b.Reset()
	return out
}

func (b *Builder) top() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return &b.frames[len(b.frames)-1]
}

// Add appends v. Inside an Object, Add alternates between keys, which must
// be strings, and values. ArrayOpen and ObjectOpen open a container. On
// error nothing is written.
func (b *Builder) Add(v Value) error {
	if b.sealed {
		return newError(BuilderUnexpectedValue, "root value already sealed")
	}
	if !v.isSlice && (v.typ == TypeArray || v.typ == TypeObject) {
		return b.open(v.typ == TypeObject, LayoutAuto)
	}
	f := b.top()
	if f != nil && f.object && !f.keyWritten && !isStringValue(v) {
		return errorf(BuilderKeyMustBeString, "got %s", v.typ)
	}
	if err := b.check(v); err != nil {
		return err
	}
	b.beforeMember()
	b.write(v)
	b.afterMember()
	return nil
}

// AddKey writes the key of the next Object member.
func (b *Builder) AddKey(key string) error {
	if b.sealed {
		return newError(BuilderUnexpectedValue, "root value already sealed")
	}
	f := b.top()
	if f == nil || !f.object {
		return ErrBuilderNeedOpenObject
	}
	if f.keyWritten {
		return ErrBuilderKeyAlreadyWritten
	}
	if b.opts.ValidateUTF8Strings && !utf8.ValidString(key) {
		return newError(InvalidUtf8Sequence, "invalid utf-8 in key")
	}
	b.beforeMember()
	b.writeString(key)
	b.afterMember()
	return nil
}

// AddKeyValue writes one Object member. Either both key and value are
// written or neither is.
func (b *Builder) AddKeyValue(key string, v Value) error {
	m := b.mark()
	if err := b.AddKey(key); err != nil {
		return err
	}
	if err := b.Add(v); err != nil {
		b.rollback(m)
		return err
	}
	return nil
}

// builderMark is a restorable position in the build.
type builderMark struct {
	size       int
	depth      int
	members    int
	keyWritten bool
	sealed     bool
	externals  int
}

func (b *Builder) mark() builderMark {
	m := builderMark{size: b.buf.Len(), depth: len(b.frames), sealed: b.sealed, externals: len(b.externals)}
	if f := b.top(); f != nil {
		m.members = len(f.offsets)
		m.keyWritten = f.keyWritten
	}
	return m
}

// rollback discards everything written since m, including containers
// opened after it.
func (b *Builder) rollback(m builderMark) {
	b.buf.Truncate(m.size)
	b.frames = b.frames[:m.depth]
	if f := b.top(); f != nil {
		f.offsets = f.offsets[:m.members]
		f.keyWritten = m.keyWritten
	}
	b.sealed = m.sealed
	b.externals = b.externals[:m.externals]
}

// OpenArray starts an Array with automatic layout.
func (b *Builder) OpenArray() error { return b.open(false, LayoutAuto) }

// OpenObject starts an Object with automatic layout.
func (b *Builder) OpenObject() error { return b.open(true, LayoutAuto) }

// OpenArrayWith starts an Array whose layout is fixed at close.
func (b *Builder) OpenArrayWith(l Layout) error { return b.open(false, l) }

// OpenObjectWith starts an Object whose layout is fixed at close.
func (b *Builder) OpenObjectWith(l Layout) error { return b.open(true, l) }

func (b *Builder) open(object bool, l Layout) error {
	if b.sealed {
		return newError(BuilderUnexpectedValue, "root value already sealed")
	}
	if f := b.top(); f != nil && f.object && !f.keyWritten {
		return newError(BuilderKeyMustBeString, "cannot open a container in key position")
	}
	b.beforeMember()
	start := b.buf.grow(headerReserve)
	b.frames = append(b.frames, frame{start: start, object: object, layout: l})
	return nil
}

// beforeMember records the offset of the member about to be written.
func (b *Builder) beforeMember() {
	f := b.top()
	if f == nil {
		return
	}
	if !f.object || !f.keyWritten {
		f.offsets = append(f.offsets, b.buf.Len()-f.start)
	}
}

// afterMember updates key expectation and seals a scalar root.
func (b *Builder) afterMember() {
	f := b.top()
	if f == nil {
		b.sealed = true
		return
	}
	if f.object {
		f.keyWritten = !f.keyWritten
	}
}

func isStringValue(v Value) bool { return v.typ == TypeString }

// check validates v before any byte is written.
func (b *Builder) check(v Value) error {
	if v.isSlice {
		return b.checkSlice(v.slice)
	}
	switch v.typ {
	case TypeNone, TypeIllegal, TypeBCD:
		return errorf(BuilderUnexpectedValue, "cannot add %s", v.typ)
	case TypeSmallInt:
		if v.i < -6 || v.i > 9 {
			return errorf(NumberOutOfRange, "%d is not a small int", v.i)
		}
	case TypeString:
		if b.opts.ValidateUTF8Strings && !utf8.ValidString(v.s) {
			return newError(InvalidUtf8Sequence, "invalid utf-8 in string")
		}
	case TypeExternal:
		if b.opts.DisallowExternals {
			return ErrBuilderExternalsForbidden
		}
		if len(v.slice.data) == 0 {
			return newError(BuilderUnexpectedValue, "external of an empty slice")
		}
	case TypeCustom:
		if b.opts.DisallowCustom {
			return ErrBuilderCustomForbidden
		}
		if len(v.raw) == 0 || v.raw[0] < tagCustom || len(v.raw) < 1+customLengthWidth(v.raw[0]) ||
			NewSlice(v.raw).ByteSize() != len(v.raw) {
			return newError(BuilderUnexpectedValue, "malformed custom value")
		}
	case TypeTagged:
		if b.opts.DisallowTags {
			return ErrBuilderTagsForbidden
		}
		in := *v.inner
		if !in.isSlice && (in.typ == TypeArray || in.typ == TypeObject) {
			return newError(BuilderUnexpectedValue, "cannot tag an open container")
		}
		return b.check(in)
	}
	return nil
}

// checkSlice applies the disallow options to pre-encoded bytes.
func (b *Builder) checkSlice(s Slice) error {
	if len(s.data) == 0 || s.IsNone() {
		return newError(BuilderUnexpectedValue, "cannot add none")
	}
	switch {
	case s.IsExternal() && b.opts.DisallowExternals:
		return ErrBuilderExternalsForbidden
	case s.IsCustom() && b.opts.DisallowCustom:
		return ErrBuilderCustomForbidden
	case s.IsTagged() && b.opts.DisallowTags:
		return ErrBuilderTagsForbidden
	}
	return nil
}

// write appends the encoding of a checked value.
func (b *Builder) write(v Value) {
	if v.isSlice {
		b.buf.Append(v.slice.Bytes())
		return
	}
	switch v.typ {
	case TypeNull:
		b.buf.AppendByte(tagNull)
	case TypeBool:
		if v.b {
			b.buf.AppendByte(tagTrue)
		} else {
			b.buf.AppendByte(tagFalse)
		}
	case TypeDouble:
		b.writeFixed8(tagDouble, math.Float64bits(v.d))
	case TypeUTCDate:
		b.writeFixed8(tagUTCDate, uint64(v.i))
	case TypeInt, TypeSmallInt:
		b.writeInt(v.i)
	case TypeUInt:
		b.writeUInt(v.u)
	case TypeString:
		b.writeString(v.s)
	case TypeBinary:
		k := common.UintWidth(uint64(len(v.raw)))
		b.buf.AppendByte(tagBinary + byte(k-1))
		b.buf.data = common.AppendUintLE(b.buf.data, uint64(len(v.raw)), k)
		b.buf.Append(v.raw)
	case TypeMinKey:
		b.buf.AppendByte(tagMinKey)
	case TypeMaxKey:
		b.buf.AppendByte(tagMaxKey)
	case TypeExternal:
		target := v.slice.Bytes()
		b.externals = append(b.externals, target)
		b.writeFixed8(tagExternal, uint64(uintptr(unsafe.Pointer(unsafe.SliceData(target)))))
	case TypeCustom:
		b.buf.Append(v.raw)
	case TypeTagged:
		if v.tag <= math.MaxUint8 {
			b.buf.Append([]byte{tagTagged1, byte(v.tag)})
		} else {
			b.writeFixed8(tagTagged8, v.tag)
		}
		b.write(*v.inner)
	}
}

func (b *Builder) writeFixed8(tag byte, x uint64) {
	off := b.buf.grow(9)
	b.buf.data[off] = tag
	binary.LittleEndian.PutUint64(b.buf.data[off+1:], x)
}

func (b *Builder) writeInt(x int64) {
	switch {
	case x >= 0 && x <= 9:
		b.buf.AppendByte(tagSmallIntPos + byte(x))
	case x >= -6 && x < 0:
		b.buf.AppendByte(byte(0x40 + x))
	default:
		w := common.IntWidth(x)
		off := b.buf.grow(1 + w)
		b.buf.data[off] = tagInt + byte(w-1)
		common.PutUintLE(b.buf.data[off+1:], uint64(x), w)
	}
}

func (b *Builder) writeUInt(x uint64) {
	if x <= 9 {
		b.buf.AppendByte(tagSmallIntPos + byte(x))
		return
	}
	w := common.UintWidth(x)
	off := b.buf.grow(1 + w)
	b.buf.data[off] = tagUInt + byte(w-1)
	common.PutUintLE(b.buf.data[off+1:], x, w)
}

func (b *Builder) writeString(s string) {
	if len(s) <= maxShortString {
		b.buf.AppendByte(tagShortString + byte(len(s)))
		b.buf.AppendString(s)
		return
	}
	b.writeFixed8(tagLongString, uint64(len(s)))
	b.buf.AppendString(s)
}
