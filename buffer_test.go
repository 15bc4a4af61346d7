package vpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer(0)
	require.Zero(t, b.Len())
	b.AppendByte('a')
	b.AppendString("bc")
	b.Append([]byte("def"))
	require.Equal(t, "abcdef", string(b.Bytes()))

	b.Reserve(100)
	capBefore := b.Cap()
	require.GreaterOrEqual(t, capBefore, 106)
	for i := 0; i < 100; i++ {
		b.AppendByte('x')
	}
	require.Equal(t, capBefore, b.Cap(), "reserved space is used without reallocating")

	off := b.grow(4)
	require.Equal(t, 106, off)
	require.Equal(t, []byte{0, 0, 0, 0}, b.Bytes()[off:])

	b.Truncate(3)
	require.Equal(t, "abc", string(b.Bytes()))
	b.Reset()
	require.Zero(t, b.Len())
	require.Equal(t, capBefore, b.Cap())

	b.AppendString("kept")
	stolen := b.Steal()
	require.Equal(t, "kept", string(stolen))
	require.Zero(t, b.Len())
	require.Zero(t, b.Cap())
}

func TestBufferGrowZeroes(t *testing.T) {
	b := NewBuffer(8)
	b.AppendString("dirty!!!")
	b.Truncate(0)
	off := b.grow(8)
	require.Zero(t, off)
	require.Equal(t, make([]byte, 8), b.Bytes())
}
