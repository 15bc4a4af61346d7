package vpack

import "iter"

// ArrayIterator walks the members of an Array in order. It is a value type;
// restart by constructing a new one.
type ArrayIterator struct {
	s      Slice
	l      containerLayout
	pos    int
	cur    Slice
	offset int
}

// NewArrayIterator positions an iterator on the first member of s.
func NewArrayIterator(s Slice) (ArrayIterator, error) {
	if !s.IsArray() {
		return ArrayIterator{}, s.mismatch("array")
	}
	it := ArrayIterator{s: s, l: s.layout()}
	it.offset = it.l.dataOffset
	it.load()
	return it, nil
}

func (it *ArrayIterator) load() {
	if it.pos >= it.l.n {
		return
	}
	switch it.l.kind {
	case layoutIndexed:
		it.cur = Slice{data: it.s.data[it.s.indexEntry(&it.l, it.pos):]}
	default:
		it.cur = Slice{data: it.s.data[it.offset:]}
	}
}

// Valid reports whether the iterator points at a member.
func (it *ArrayIterator) Valid() bool { return it.pos < it.l.n }

// Next advances to the following member.
func (it *ArrayIterator) Next() {
	if !it.Valid() {
		return
	}
	if it.l.kind != layoutIndexed {
		it.offset += it.cur.ByteSize()
	}
	it.pos++
	it.load()
}

// Index returns the position of the current member.
func (it *ArrayIterator) Index() int { return it.pos }

// Size returns the number of members.
func (it *ArrayIterator) Size() int { return it.l.n }

// Value returns the current member, or a None slice past the end.
func (it *ArrayIterator) Value() Slice {
	if !it.Valid() {
		return NoneSlice()
	}
	return it.cur
}

// ObjectIterator walks the members of an Object in index order, which is key
// order for sorted objects and insertion order otherwise.
type ObjectIterator struct {
	s      Slice
	l      containerLayout
	pos    int
	key    Slice
	offset int
}

// NewObjectIterator positions an iterator on the first member of s.
func NewObjectIterator(s Slice) (ObjectIterator, error) {
	if !s.IsObject() {
		return ObjectIterator{}, s.mismatch("object")
	}
	it := ObjectIterator{s: s, l: s.layout()}
	it.offset = it.l.dataOffset
	it.load()
	return it, nil
}

func (it *ObjectIterator) load() {
	if it.pos >= it.l.n {
		return
	}
	if it.l.kind == layoutIndexed {
		it.key = Slice{data: it.s.data[it.s.indexEntry(&it.l, it.pos):]}
		return
	}
	it.key = Slice{data: it.s.data[it.offset:]}
}

func (it *ObjectIterator) Valid() bool { return it.pos < it.l.n }

func (it *ObjectIterator) Next() {
	if !it.Valid() {
		return
	}
	if it.l.kind != layoutIndexed {
		v := it.key.next()
		it.offset += it.key.ByteSize() + v.ByteSize()
	}
	it.pos++
	it.load()
}

func (it *ObjectIterator) Index() int { return it.pos }
func (it *ObjectIterator) Size() int  { return it.l.n }

// Key returns the key of the current member.
func (it *ObjectIterator) Key() Slice {
	if !it.Valid() {
		return NoneSlice()
	}
	return it.key
}

// Value returns the value of the current member.
func (it *ObjectIterator) Value() Slice {
	if !it.Valid() {
		return NoneSlice()
	}
	return it.key.next()
}

// Elements yields the members of an Array with their position. It yields
// nothing when s is not an Array.
func (s Slice) Elements() iter.Seq2[int, Slice] {
	return func(yield func(int, Slice) bool) {
		it, err := NewArrayIterator(s)
		if err != nil {
			return
		}
		for ; it.Valid(); it.Next() {
			if !yield(it.Index(), it.Value()) {
				return
			}
		}
	}
}

// Members yields the key and value of each member of an Object. It yields
// nothing when s is not an Object.
func (s Slice) Members() iter.Seq2[Slice, Slice] {
	return func(yield func(Slice, Slice) bool) {
		it, err := NewObjectIterator(s)
		if err != nil {
			return
		}
		for ; it.Valid(); it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}
