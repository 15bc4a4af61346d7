package vpack

import (
	"github.com/rawbytedev/vpack/internal/common"
)

type layoutKind uint8

const (
	layoutEmpty layoutKind = iota
	layoutCompact
	layoutEqual
	layoutIndexed
)

// containerLayout is the decoded header of an Array or Object.
type containerLayout struct {
	kind       layoutKind
	n          int
	width      int
	byteSize   int
	dataOffset int
	indexBase  int
	itemSize   int
}

// firstSubOffset finds the first member of an equal-size array. Writers may
// pad the header with zero bytes up to offset 9, and no value starts with 0.
func firstSubOffset(data []byte, h byte) int {
	fsm := 9
	switch widthOfIndexed(h) {
	case 1:
		fsm = 2
	case 2:
		fsm = 3
	case 4:
		fsm = 5
	}
	if fsm <= 2 && data[2] != 0 {
		return 2
	}
	if fsm <= 3 && data[3] != 0 {
		return 3
	}
	if fsm <= 5 && data[5] != 0 {
		return 5
	}
	return 9
}

// layout decodes the container header. s must be an Array or Object.
func (s Slice) layout() containerLayout {
	h := s.head()
	switch {
	case h == tagEmptyArray || h == tagEmptyObject:
		return containerLayout{kind: layoutEmpty, byteSize: 1}
	case h == tagCompactArray || h == tagCompactObject:
		bl, vl := common.ReadVarUint(s.data[1:])
		n, _ := common.ReadVarUintReversed(s.data, int(bl)-1)
		return containerLayout{kind: layoutCompact, n: int(n), byteSize: int(bl), dataOffset: 1 + vl}
	case h >= tagArrayEqual && h <= 0x05:
		w := widthOfIndexed(h)
		bl := int(common.ReadUintLE(s.data[1:], w))
		off := firstSubOffset(s.data, h)
		item := Slice{data: s.data[off:]}.ByteSize()
		return containerLayout{kind: layoutEqual, n: (bl - off) / item, width: w, byteSize: bl, dataOffset: off, itemSize: item}
	}
	w := widthOfIndexed(h)
	bl := int(common.ReadUintLE(s.data[1:], w))
	l := containerLayout{kind: layoutIndexed, width: w, byteSize: bl}
	if w < 8 {
		l.n = int(common.ReadUintLE(s.data[1+w:], w))
		l.indexBase = bl - l.n*w
	} else {
		l.n = int(common.ReadUintLE(s.data[bl-8:], 8))
		l.indexBase = bl - 8 - l.n*8
	}
	if l.n > 0 {
		l.dataOffset = int(common.ReadUintLE(s.data[l.indexBase:], w))
	}
	return l
}

// indexEntry returns the offset stored in slot i of the index table.
func (s Slice) indexEntry(l *containerLayout, i int) int {
	return int(common.ReadUintLE(s.data[l.indexBase+i*l.width:], l.width))
}

// arrayMember returns member i of an array, i must be in range.
func (s Slice) arrayMember(l *containerLayout, i int) Slice {
	switch l.kind {
	case layoutIndexed:
		return Slice{data: s.data[s.indexEntry(l, i):]}
	case layoutEqual:
		return Slice{data: s.data[l.dataOffset+i*l.itemSize:]}
	}
	off := l.dataOffset
	for j := 0; j < i; j++ {
		off += Slice{data: s.data[off:]}.ByteSize()
	}
	return Slice{data: s.data[off:]}
}

// objectKey returns the key of member i of an object, i must be in range.
func (s Slice) objectKey(l *containerLayout, i int) Slice {
	if l.kind == layoutIndexed {
		return Slice{data: s.data[s.indexEntry(l, i):]}
	}
	off := l.dataOffset
	for j := 0; j < i; j++ {
		off += Slice{data: s.data[off:]}.ByteSize()
		off += Slice{data: s.data[off:]}.ByteSize()
	}
	return Slice{data: s.data[off:]}
}

// next returns the value that directly follows s in memory.
func (s Slice) next() Slice {
	return Slice{data: s.data[s.ByteSize():]}
}

// At returns member i of an Array. Indexed and equal-size arrays compute the
// position directly; compact arrays are scanned.
func (s Slice) At(i int) (Slice, error) {
	if !s.IsArray() {
		return Slice{}, s.mismatch("array")
	}
	l := s.layout()
	if i < 0 || i >= l.n {
		return Slice{}, errorf(IndexOutOfBounds, "index %d, length %d", i, l.n)
	}
	return s.arrayMember(&l, i), nil
}

// KeyAt returns the key of member i of an Object, in index order.
func (s Slice) KeyAt(i int) (Slice, error) {
	if !s.IsObject() {
		return Slice{}, s.mismatch("object")
	}
	l := s.layout()
	if i < 0 || i >= l.n {
		return Slice{}, errorf(IndexOutOfBounds, "index %d, length %d", i, l.n)
	}
	return s.objectKey(&l, i), nil
}

// ValueAt returns the value of member i of an Object, in index order.
func (s Slice) ValueAt(i int) (Slice, error) {
	k, err := s.KeyAt(i)
	if err != nil {
		return Slice{}, err
	}
	return k.next(), nil
}

// keyBytes returns the bytes of a String key.
func keyBytes(k Slice) ([]byte, bool) {
	b, err := k.GetStringBytes()
	return b, err == nil
}

// Get returns the value stored under key, or a None slice when the key is
// absent. Sorted objects are binary searched, other indexed objects scan
// their index and compact objects are walked member by member. When keys
// repeat, the member added first wins.
func (s Slice) Get(key string) (Slice, error) {
	if !s.IsObject() {
		return Slice{}, s.mismatch("object")
	}
	l := s.layout()
	if l.n == 0 {
		return NoneSlice(), nil
	}
	switch {
	case l.kind == layoutIndexed && s.IsSorted():
		return s.searchSorted(&l, key), nil
	case l.kind == layoutIndexed:
		for i := 0; i < l.n; i++ {
			k := Slice{data: s.data[s.indexEntry(&l, i):]}
			if b, ok := keyBytes(k); ok && string(b) == key {
				return k.next(), nil
			}
		}
		return NoneSlice(), nil
	}
	off := l.dataOffset
	for i := 0; i < l.n; i++ {
		k := Slice{data: s.data[off:]}
		v := k.next()
		if b, ok := keyBytes(k); ok && string(b) == key {
			return v, nil
		}
		off += k.ByteSize() + v.ByteSize()
	}
	return NoneSlice(), nil
}

// searchSorted finds the leftmost index slot whose key equals key. The
// builder sorts stably, so the leftmost slot is the first one added.
func (s Slice) searchSorted(l *containerLayout, key string) Slice {
	lo, hi := 0, l.n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		b, _ := keyBytes(Slice{data: s.data[s.indexEntry(l, mid):]})
		if string(b) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < l.n {
		k := Slice{data: s.data[s.indexEntry(l, lo):]}
		if b, ok := keyBytes(k); ok && string(b) == key {
			return k.next()
		}
	}
	return NoneSlice()
}

// HasKey reports whether key is present in an Object.
func (s Slice) HasKey(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return !v.IsNone(), nil
}

// GetPath follows a sequence of keys through nested objects. A missing key
// anywhere along the path yields a None slice.
func (s Slice) GetPath(path ...string) (Slice, error) {
	if !s.IsObject() {
		return Slice{}, s.mismatch("object")
	}
	cur := s
	for _, key := range path {
		if !cur.IsObject() {
			return NoneSlice(), nil
		}
		v, err := cur.Get(key)
		if err != nil {
			return Slice{}, err
		}
		if v.IsNone() {
			return v, nil
		}
		cur = v
	}
	return cur, nil
}

// Keys returns copies of all keys of an Object in index order.
func (s Slice) Keys() ([]string, error) {
	if !s.IsObject() {
		return nil, s.mismatch("object")
	}
	var keys []string
	for it, _ := NewObjectIterator(s); it.Valid(); it.Next() {
		k, err := it.Key().GetString()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
