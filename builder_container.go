package vpack

import (
	"bytes"
	"math"
	"slices"

	"github.com/rawbytedev/vpack/internal/common"
)

// Close finishes the innermost open container. The header reserved by open
// is rewritten in place and members are moved down when the final header is
// shorter than the reservation.
func (b *Builder) Close() error {
	f := b.top()
	if f == nil {
		return ErrBuilderNeedOpenContainer
	}
	if f.object && f.keyWritten {
		return newError(BuilderKeyAlreadyWritten, "key without value")
	}
	if f.object && b.opts.CheckAttributeUniqueness && len(f.offsets) > 1 {
		if err := b.checkUnique(f); err != nil {
			return err
		}
	}
	n := len(f.offsets)
	switch {
	case n == 0:
		b.closeEmpty(f)
	case b.compact(f):
		b.closeCompact(f)
	default:
		b.closeIndexed(f)
	}
	b.frames = b.frames[:len(b.frames)-1]
	b.afterMember()
	return nil
}

// compact decides whether f is closed without an index table.
func (b *Builder) compact(f *frame) bool {
	switch f.layout {
	case LayoutCompact:
		return true
	case LayoutIndexed:
		return false
	}
	if f.object && b.opts.BuildUnindexedObjects || !f.object && b.opts.BuildUnindexedArrays {
		return true
	}
	return len(f.offsets) < CompactThreshold
}

// keyAt returns the key bytes of the member at off within f.
func (b *Builder) keyAt(f *frame, off int) []byte {
	k, _ := keyBytes(Slice{data: b.buf.data[f.start+off:]})
	return k
}

func (b *Builder) checkUnique(f *frame) error {
	keys := make([][]byte, len(f.offsets))
	for i, off := range f.offsets {
		keys[i] = b.keyAt(f, off)
	}
	slices.SortFunc(keys, bytes.Compare)
	for i := 1; i < len(keys); i++ {
		if bytes.Equal(keys[i-1], keys[i]) {
			return errorf(DuplicateAttributeName, "duplicate key %q", keys[i])
		}
	}
	return nil
}

func (b *Builder) closeEmpty(f *frame) {
	b.buf.Truncate(f.start)
	if f.object {
		b.buf.AppendByte(tagEmptyObject)
	} else {
		b.buf.AppendByte(tagEmptyArray)
	}
}

// closeCompact writes tag | varint byte length | members | reversed varint
// member count.
func (b *Builder) closeCompact(f *frame) {
	payload := b.buf.Len() - f.start - headerReserve
	n := uint64(len(f.offsets))
	base := 1 + payload + common.VarUintLen(n)
	vl := 1
	for common.VarUintLen(uint64(base+vl)) > vl {
		vl++
	}
	total := base + vl

	data := b.buf.data
	copy(data[f.start+1+vl:], data[f.start+headerReserve:])
	b.buf.Truncate(f.start + 1 + vl + payload)
	if f.object {
		data[f.start] = tagCompactObject
	} else {
		data[f.start] = tagCompactArray
	}
	common.PutVarUint(data[f.start+1:], uint64(total))
	b.buf.data = common.WriteVarUintReversed(b.buf.data, n)
}

// indexedWidth picks the narrowest offset width whose range holds both the
// total byte length and the member count, and returns that total.
func indexedWidth(payload, n int) (width, total int) {
	for _, w := range []int{1, 2, 4} {
		total = 1 + 2*w + payload + n*w
		limit := maxWidthLength(w)
		if uint64(total) <= limit && uint64(n) <= limit {
			return w, total
		}
	}
	return 8, 1 + 8 + payload + n*8 + 8
}

// closeIndexed writes tag | byte length | count | members | index for
// widths 1, 2 and 4, and tag | byte length | members | index | count for
// width 8.
func (b *Builder) closeIndexed(f *frame) {
	payload := b.buf.Len() - f.start - headerReserve
	n := len(f.offsets)
	w, total := indexedWidth(payload, n)
	header := 1 + 2*w
	if w == 8 {
		header = 9
	}
	shift := headerReserve - header

	data := b.buf.data
	if shift > 0 {
		copy(data[f.start+header:], data[f.start+headerReserve:])
		b.buf.Truncate(f.start + header + payload)
		for i := range f.offsets {
			f.offsets[i] -= shift
		}
	}

	var tag byte
	switch {
	case !f.object:
		tag = tagArrayIndexed + log2Width(w)
	case b.opts.SortAttributeNames:
		tag = tagObjectSorted + log2Width(w)
		slices.SortStableFunc(f.offsets, func(x, y int) int {
			return bytes.Compare(b.keyAt(f, x), b.keyAt(f, y))
		})
	default:
		tag = tagObjectUnsorted + log2Width(w)
	}

	data = b.buf.data
	data[f.start] = tag
	common.PutUintLE(data[f.start+1:], uint64(total), w)
	if w < 8 {
		common.PutUintLE(data[f.start+1+w:], uint64(n), w)
	}
	off := b.buf.grow(n * w)
	for i, o := range f.offsets {
		common.PutUintLE(b.buf.data[off+i*w:], uint64(o), w)
	}
	if w == 8 {
		off = b.buf.grow(8)
		common.PutUintLE(b.buf.data[off:], uint64(n), 8)
	}
}

// maxWidthLength is the largest byte length addressable with w byte offsets.
func maxWidthLength(w int) uint64 {
	if w >= 8 {
		return math.MaxUint64
	}
	return uint64(1)<<(8*w) - 1
}
