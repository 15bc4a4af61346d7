package vpack

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayIterator(t *testing.T) {
	for _, text := range []string{`[]`, `[1]`, `[1,"two",3.5]`, `[1,2,3,4,5,6,7,8]`} {
		s := mustParse(t, text)
		n, _ := s.Length()
		it, err := NewArrayIterator(s)
		require.NoError(t, err)
		require.Equal(t, n, it.Size())
		var parts []string
		for ; it.Valid(); it.Next() {
			require.Equal(t, len(parts), it.Index())
			parts = append(parts, it.Value().String())
		}
		require.Equal(t, text, "["+strings.Join(parts, ",")+"]")
		require.True(t, it.Value().IsNone())
		it.Next()
		require.False(t, it.Valid())
	}
}

func TestArrayIteratorCompactLarge(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.OpenArrayWith(LayoutCompact))
	for i := 0; i < 1000; i++ {
		require.NoError(t, b.Add(String(fmt.Sprint(i))))
	}
	require.NoError(t, b.Close())
	s := sealed(t, b)
	require.Equal(t, byte(0x13), s.Head())
	count := 0
	for i, v := range s.Elements() {
		str, err := v.GetString()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprint(i), str)
		count++
	}
	require.Equal(t, 1000, count)
}

func TestObjectIterator(t *testing.T) {
	s := mustParse(t, `{"z":1,"y":[true],"x":{"w":null},"v":"s"}`)
	it, err := NewObjectIterator(s)
	require.NoError(t, err)
	require.Equal(t, 4, it.Size())
	var keys []string
	for ; it.Valid(); it.Next() {
		k, err := it.Key().GetString()
		require.NoError(t, err)
		keys = append(keys, k)
		v, err := s.Get(k)
		require.NoError(t, err)
		require.True(t, v.BinaryEquals(it.Value()))
	}
	require.Equal(t, []string{"v", "x", "y", "z"}, keys)
	require.True(t, it.Key().IsNone())
	require.True(t, it.Value().IsNone())
}

func TestObjectIteratorCompact(t *testing.T) {
	s := mustParse(t, `{"b":1,"a":2}`)
	require.Equal(t, byte(0x14), s.Head())
	var keys []string
	for k, v := range s.Members() {
		str, _ := k.GetString()
		keys = append(keys, str)
		require.True(t, v.IsSmallInt())
	}
	require.Equal(t, []string{"b", "a"}, keys)
}

func TestIteratorsStopEarly(t *testing.T) {
	s := mustParse(t, `[1,2,3,4,5]`)
	seen := 0
	for i := range s.Elements() {
		seen++
		if i == 1 {
			break
		}
	}
	require.Equal(t, 2, seen)

	o := mustParse(t, `{"a":1,"b":2,"c":3}`)
	seen = 0
	for range o.Members() {
		seen++
		break
	}
	require.Equal(t, 1, seen)

	for range mustParse(t, `"x"`).Elements() {
		t.Fatal("non-array yields members")
	}
}
