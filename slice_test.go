package vpack

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, text string) Slice {
	t.Helper()
	b, err := FromJSON([]byte(text), nil)
	require.NoError(t, err)
	s, err := b.Slice()
	require.NoError(t, err)
	return s
}

func TestSliceTypeMismatch(t *testing.T) {
	s := mustParse(t, `"text"`)
	_, err := s.GetInt()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.GetBool()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.GetDouble()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.Length()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.At(0)
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.Get("a")
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.GetBinary()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = s.GetUTCDate()
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = NewArrayIterator(s)
	require.ErrorIs(t, err, ErrValueTypeMismatch)
	_, err = NewObjectIterator(s)
	require.ErrorIs(t, err, ErrValueTypeMismatch)
}

func TestSliceIntegers(t *testing.T) {
	cases := []struct {
		v    Value
		want int64
	}{
		{Int(math.MinInt64), math.MinInt64},
		{Int(math.MaxInt64), math.MaxInt64},
		{Int(-129), -129},
		{Int(-128), -128},
		{Int(127), 127},
		{Int(128), 128},
		{UInt(255), 255},
		{SmallInt(-6), -6},
		{SmallInt(9), 9},
	}
	for _, c := range cases {
		b := NewBuilder(nil)
		require.NoError(t, b.Add(c.v))
		s := sealed(t, b)
		require.True(t, s.IsInteger())
		require.True(t, s.IsNumber())
		got, err := s.GetInt()
		require.NoError(t, err)
		require.Equal(t, c.want, got)
		f, err := s.GetNumber()
		require.NoError(t, err)
		require.Equal(t, float64(c.want), f)
		require.Equal(t, len(s.Bytes()), s.ByteSize())
	}

	b := NewBuilder(nil)
	require.NoError(t, b.Add(UInt(math.MaxUint64)))
	s := sealed(t, b)
	u, err := s.GetUInt()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), u)
	_, err = s.GetInt()
	require.ErrorIs(t, err, ErrNumberOutOfRange)

	_, err = mustParse(t, "-5").GetUInt()
	require.ErrorIs(t, err, ErrNumberOutOfRange)
}

func TestSliceDoubleAndDate(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, b.Add(Double(-0.25)))
	when := time.Date(2024, 2, 29, 12, 30, 0, 123e6, time.UTC)
	require.NoError(t, b.Add(Time(when)))
	require.NoError(t, b.Add(UTCDate(-1)))
	require.NoError(t, b.Close())
	s := sealed(t, b)

	d, _ := s.At(0)
	f, err := d.GetDouble()
	require.NoError(t, err)
	require.Equal(t, -0.25, f)

	date, _ := s.At(1)
	got, err := date.GetTime()
	require.NoError(t, err)
	require.True(t, when.Equal(got))

	neg, _ := s.At(2)
	ms, err := neg.GetUTCDate()
	require.NoError(t, err)
	require.EqualValues(t, -1, ms)
}

func TestSliceStringsAndBinary(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, b.Add(String("")))
	require.NoError(t, b.Add(String("héllo")))
	require.NoError(t, b.Add(Binary(make([]byte, 300))))
	require.NoError(t, b.Close())
	s := sealed(t, b)

	empty, _ := s.At(0)
	str, err := empty.GetStringUnsafe()
	require.NoError(t, err)
	require.Empty(t, str)

	h, _ := s.At(1)
	n, err := h.GetStringLength()
	require.NoError(t, err)
	require.Equal(t, 6, n)
	str, err = h.GetStringUnsafe()
	require.NoError(t, err)
	require.Equal(t, "héllo", str)

	bin, _ := s.At(2)
	require.Equal(t, byte(0xc1), bin.Head())
	n, err = bin.GetBinaryLength()
	require.NoError(t, err)
	require.Equal(t, 300, n)
	require.Equal(t, 1+2+300, bin.ByteSize())
}

func TestSliceGetPath(t *testing.T) {
	s := mustParse(t, `{"a": {"b": {"c": [1, 2]}, "x": 1}, "z": null}`)
	v, err := s.GetPath("a", "b", "c")
	require.NoError(t, err)
	require.True(t, v.IsArray())

	v, err = s.GetPath("a", "x", "y")
	require.NoError(t, err)
	require.True(t, v.IsNone())

	v, err = s.GetPath("a", "missing", "c")
	require.NoError(t, err)
	require.True(t, v.IsNone())

	v, err = s.GetPath()
	require.NoError(t, err)
	require.True(t, v.BinaryEquals(s))

	ok, err := s.HasKey("z")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = mustParse(t, `[1]`).GetPath("a")
	require.ErrorIs(t, err, ErrValueTypeMismatch)
}

func TestSliceKeyAtValueAt(t *testing.T) {
	s := mustParse(t, `{"b": 2, "a": 1, "d": 4, "c": 3}`)
	for i, want := range []string{"a", "b", "c", "d"} {
		k, err := s.KeyAt(i)
		require.NoError(t, err)
		str, _ := k.GetString()
		require.Equal(t, want, str)
		v, err := s.ValueAt(i)
		require.NoError(t, err)
		n, _ := v.GetInt()
		require.EqualValues(t, i+1, n)
	}
	_, err := s.KeyAt(4)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
	_, err = s.ValueAt(-1)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestSliceEqualSizeArray(t *testing.T) {
	// tag | byte length | padding | three one byte members
	data := []byte{0x02, 0x06, 0x00, 0x31, 0x32, 0x33}
	require.NoError(t, Validate(data, nil))
	s := NewSlice(data)
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	m, err := s.At(2)
	require.NoError(t, err)
	v, _ := m.GetInt()
	require.EqualValues(t, 3, v)
	require.Equal(t, "[1,2,3]", s.String())
}

func TestSliceSpecialMarkers(t *testing.T) {
	require.True(t, NoneSlice().IsNone())
	require.True(t, NullSlice().IsNull())
	require.True(t, IllegalSlice().IsIllegal())
	require.True(t, Slice{}.IsNone())
	require.Nil(t, Slice{}.Bytes())
	require.Equal(t, TypeString, TypeOfHead(0x40))
	require.Equal(t, TypeCustom, TypeOfHead(0xff))
	require.Equal(t, TypeNone, TypeOfHead(0x15))
	require.Equal(t, "smallint", TypeSmallInt.String())
}
