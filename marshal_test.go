package vpack

import (
	"math"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MixedStruct struct {
	Val      string
	Mod      int8
	Data     string
	Integers int16
	Float3   float32
	Float6   float64
}

func FuzzEncodeDecode(f *testing.F) {
	f.Add("azerty", int8(17), "testing", int16(-12), float32(12.3), 1236.2)
	f.Add("", int8(-128), "\xff", int16(32767), float32(0), math.Inf(-1))
	f.Fuzz(fuzzMixedTypes)
}

func fuzzMixedTypes(t *testing.T, Val string, Mod int8, Data string, Integers int16, Float3 float32, Float6 float64) {
	if math.IsNaN(float64(Float3)) || math.IsNaN(Float6) {
		t.Skip("NaN never compares equal")
	}
	val := MixedStruct{Val: Val, Mod: Mod, Data: Data, Integers: Integers, Float3: Float3, Float6: Float6}
	res := &MixedStruct{}
	data, err := Marshal(val)
	require.NoError(t, err)
	err = Unmarshal(data, res)
	require.NoError(t, err)
	require.EqualExportedValues(t, val, *res)
}

func TestEncodeSimpleTypes(t *testing.T) {
	type NewStruct struct {
		Val      []string
		Mod      int8
		Data     string
		Integers int16
		Float3   float32
		Float6   float64
	}
	z := NewStruct{Val: []string{"azerty", "Loling"}, Data: "testing",
		Mod: int8(17), Integers: int16(12),
		Float3: float32(12.3), Float6: float64(1236.2)}
	res := &NewStruct{}
	data, err := Marshal(z)
	require.NoError(t, err)
	err = Unmarshal(data, res)
	require.NoError(t, err)
	require.EqualExportedValues(t, z, *res)
}

func TestConstant(t *testing.T) {
	type NewStructint struct {
		Int1  uint8
		Int2  int8
		Int3  uint16
		Int4  int16
		Int5  uint32
		Int6  int32
		Int7  uint64
		Int9  int64
		Const bool
	}
	enc := NewEncoder(nil)
	dec := NewDecoder(nil)
	condition := func(z NewStructint) bool {
		data, err := enc.Marshal(z)
		require.NoError(t, err)
		res := &NewStructint{}
		err = dec.Unmarshal(data, res)
		require.NoError(t, err)
		return assert.ObjectsAreEqual(z, *res)
	}
	err := quick.Check(condition, &quick.Config{})
	require.NoError(t, err)
}

func TestConstantList(t *testing.T) {
	type NewStructint struct {
		Int1  []uint8
		Int2  int8
		Int3  []uint16
		Int4  []int16
		Int5  []uint32
		Int6  []int32
		Int7  []uint64
		Int9  []int64
		Const []bool
	}
	enc := NewEncoder(nil)
	condition := func(z NewStructint) bool {
		data, err := enc.Marshal(z)
		require.NoError(t, err)
		res := &NewStructint{}
		err = Unmarshal(data, res)
		require.NoError(t, err)
		return assert.ObjectsAreEqual(z, *res)
	}
	err := quick.Check(condition, &quick.Config{})
	require.NoError(t, err)
}

func TestEncodeListOfTypes(t *testing.T) {
	type NewStruct struct {
		Val      []string
		Mod      []int8
		Integers []int16
		Float3   []float32
		Float6   []float64
	}
	dec := NewDecoder(&Options{UnsafeStrings: true})
	condition := func(z NewStruct) bool {
		data, err := Marshal(z)
		require.NoError(t, err)
		res := &NewStruct{}
		err = dec.Unmarshal(data, res)
		require.NoError(t, err)
		return assert.ObjectsAreEqual(z, *res)
	}
	err := quick.Check(condition, &quick.Config{})
	require.NoError(t, err)
}

func TestStructPointer(t *testing.T) {
	type StructPtr struct {
		Data string
		Next *StructPtr
	}
	val := &StructPtr{Data: "Hello", Next: &StructPtr{Data: "World"}}
	res := &StructPtr{}
	data, err := Marshal(val)
	require.NoError(t, err)
	err = Unmarshal(data, res)
	require.NoError(t, err)
	require.Equal(t, val, res)
}

func TestStructTags(t *testing.T) {
	type Labeled struct {
		Name    string    `vpack:"name"`
		Skipped string    `vpack:"-"`
		Empty   string    `vpack:"empty,omitempty"`
		Count   int       `vpack:"count,omitempty"`
		When    time.Time `vpack:"when"`
		private int
	}
	when := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	data, err := Marshal(Labeled{Name: "n", Skipped: "s", When: when, private: 3})
	require.NoError(t, err)
	s := NewSlice(data)
	keys, err := s.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{"name", "when"}, keys)
	w, _ := s.Get("when")
	require.True(t, w.IsUTCDate())

	var out Labeled
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, "n", out.Name)
	require.Empty(t, out.Skipped)
	require.True(t, when.Equal(out.When))
}

func TestMarshalMapsAndInterfaces(t *testing.T) {
	in := map[string]any{
		"b":    []any{int64(1), "two", nil, true},
		"a":    map[string]any{"x": 1.5},
		"blob": []byte{1, 2, 3},
	}
	data, err := Marshal(in)
	require.NoError(t, err)
	require.NoError(t, Validate(data, nil))

	var out map[string]any
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, map[string]any{
		"b":    []any{int64(1), "two", nil, true},
		"a":    map[string]any{"x": 1.5},
		"blob": []byte{1, 2, 3},
	}, out)

	var generic any
	require.NoError(t, Unmarshal(data, &generic))
	require.IsType(t, map[string]any{}, generic)
}

func TestMarshalSliceField(t *testing.T) {
	type Envelope struct {
		Kind string
		Body Slice
	}
	body := mustParse(t, `{"deep":[1,2,3]}`)
	data, err := Marshal(Envelope{Kind: "raw", Body: body})
	require.NoError(t, err)

	var out Envelope
	require.NoError(t, Unmarshal(data, &out))
	require.True(t, body.BinaryEquals(out.Body))
}

func TestErrors(t *testing.T) {
	_, err := Marshal(make(chan int))
	require.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Marshal(map[int]string{1: "x"})
	require.ErrorIs(t, err, ErrNotImplemented)

	type Eas struct {
		Val string
	}
	data, err := Marshal(&Eas{Val: "world"})
	require.NoError(t, err)
	str := Eas{}
	err = Unmarshal(data, str) // needs pointer
	require.ErrorIs(t, err, ErrValueTypeMismatch)

	var n int8
	big, err := Marshal(1000)
	require.NoError(t, err)
	require.ErrorIs(t, Unmarshal(big, &n), ErrNumberOutOfRange)

	var u uint
	neg, err := Marshal(-1)
	require.NoError(t, err)
	require.ErrorIs(t, Unmarshal(neg, &u), ErrNumberOutOfRange)

	var s string
	require.ErrorIs(t, Unmarshal(big, &s), ErrValueTypeMismatch)
	require.ErrorIs(t, Unmarshal([]byte{0x21}, &n), ErrValidatorInvalidLength)
}

func TestEncodeToRollsBack(t *testing.T) {
	type Bad struct {
		Ok  int
		Bad func()
	}
	enc := NewEncoder(nil)
	b := NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, enc.EncodeTo(b, 1))
	size := b.buf.Len()
	require.Error(t, enc.EncodeTo(b, Bad{Ok: 1}))
	require.Equal(t, size, b.buf.Len())
	require.Equal(t, 1, b.Depth())
	require.NoError(t, b.Close())
	require.Equal(t, `[1]`, sealed(t, b).String())
}

func TestMarshalResultSurvivesReuse(t *testing.T) {
	enc := NewEncoder(nil)
	first, err := enc.Marshal([]string{"a", "b"})
	require.NoError(t, err)
	keep := append([]byte(nil), first...)
	_, err = enc.Marshal([]int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Equal(t, keep, first)
}
