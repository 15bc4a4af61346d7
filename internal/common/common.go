package common

import (
	"math/bits"
)

// PutVarUint writes x into b starting at b[0] and returns the bytes written.
// b must have room for VarUintLen(x) bytes.
func PutVarUint(b []byte, x uint64) int {
	i := 0
	for x >= 0x80 {
		b[i] = byte(x) | 0x80
		x >>= 7
		i++
	}
	b[i] = byte(x)
	return i + 1
}

// ReadVarUint decodes a varint from b returning value and bytes consumed.
// A zero length means b ended inside the varint.
func ReadVarUint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if i == 10 {
			return 0, 0
		}
		x |= uint64(c&0x7F) << s
		if c&0x80 == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}

// WriteVarUintReversed appends x so that it decodes when read backwards
// from the last appended byte. Compact containers keep their member count
// this way at their very end.
func WriteVarUintReversed(buf []byte, x uint64) []byte {
	var scratch [10]byte
	n := PutVarUint(scratch[:], x)
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, scratch[i])
	}
	return buf
}

// ReadVarUintReversed decodes a varint that ends at b[end] and grows towards
// lower addresses. It returns the value and the bytes consumed.
func ReadVarUintReversed(b []byte, end int) (uint64, int) {
	var x uint64
	var s uint
	n := 0
	for i := end; i >= 0; i-- {
		if n == 10 {
			return 0, 0
		}
		c := b[i]
		x |= uint64(c&0x7F) << s
		n++
		if c&0x80 == 0 {
			return x, n
		}
		s += 7
	}
	return 0, 0
}

// VarUintLen returns the encoded size of x in bytes.
func VarUintLen(x uint64) int {
	n := 1
	for x >= 0x80 {
		x >>= 7
		n++
	}
	return n
}

// ReadUintLE reads an n byte little endian unsigned integer (1 <= n <= 8).
func ReadUintLE(b []byte, n int) uint64 {
	_ = b[n-1]
	var x uint64
	for i := n - 1; i >= 0; i-- {
		x = x<<8 | uint64(b[i])
	}
	return x
}

// PutUintLE stores the low n bytes of x into b in little endian order.
func PutUintLE(b []byte, x uint64, n int) {
	_ = b[n-1]
	for i := 0; i < n; i++ {
		b[i] = byte(x)
		x >>= 8
	}
}

// AppendUintLE appends the low n bytes of x in little endian order.
func AppendUintLE(buf []byte, x uint64, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, byte(x))
		x >>= 8
	}
	return buf
}

// ReadIntLE reads an n byte two's complement little endian integer and sign
// extends it to 64 bits.
func ReadIntLE(b []byte, n int) int64 {
	x := ReadUintLE(b, n)
	if n < 8 {
		shift := uint(64 - 8*n)
		return int64(x<<shift) >> shift
	}
	return int64(x)
}

// UintWidth returns the number of bytes needed to hold x (at least 1).
func UintWidth(x uint64) int {
	if x == 0 {
		return 1
	}
	return (bits.Len64(x) + 7) / 8
}

// IntWidth returns the number of bytes needed to hold x in two's complement.
func IntWidth(x int64) int {
	for n := 1; n < 8; n++ {
		lim := int64(1) << (8*n - 1)
		if x >= -lim && x < lim {
			return n
		}
	}
	return 8
}
