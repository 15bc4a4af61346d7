package vpack

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type benchStruct struct {
	Val      []string  `vpack:"val"`
	Mod      []int8    `vpack:"mod"`
	Integers []int16   `vpack:"integers"`
	Float3   []float32 `vpack:"float3"`
	Float6   []float64 `vpack:"float6"`
}

var benchValue = benchStruct{
	Val: []string{"azerty", "hello", "world", "random"},
	Mod: []int8{12, 10, 13, 1}, Integers: []int16{100, 250, 300},
	Float3: []float32{12.13, 16.23, 75.1}, Float6: []float64{100.5, 165.63, 153.5},
}

func BenchmarkBuilderZeroAllocs(b *testing.B) {
	bld := NewBuilder(nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bld.Reset()
		_ = bld.OpenArray()
		_ = bld.Add(Int(1))
		_ = bld.Add(String("x"))
		_ = bld.Close()
	}
}

func BenchmarkBuilderObject(b *testing.B) {
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%02d", 63-i)
	}
	bld := NewBuilder(nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bld.Reset()
		_ = bld.OpenObject()
		for j, k := range keys {
			_ = bld.AddKeyValue(k, Int(int64(j)))
		}
		_ = bld.Close()
	}
}

func BenchmarkEncoding(b *testing.B) {
	enc := NewEncoder(nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Marshal(benchValue)
	}
}

func BenchmarkDecoding(b *testing.B) {
	res, err := Marshal(benchValue)
	require.NoError(b, err)
	y := &benchStruct{}
	dec := NewDecoder(nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = dec.Unmarshal(res, y)
	}
	require.EqualValues(b, benchValue, *y)
}

func BenchmarkUnsafeDecoding(b *testing.B) {
	res, err := Marshal(benchValue)
	require.NoError(b, err)
	y := &benchStruct{}
	dec := NewDecoder(&Options{UnsafeStrings: true})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = dec.Unmarshal(res, y)
	}
	require.EqualValues(b, benchValue, *y)
}

func BenchmarkGetSorted(b *testing.B) {
	bld := NewBuilder(nil)
	_ = bld.OpenObject()
	for i := 0; i < 1000; i++ {
		_ = bld.AddKeyValue(fmt.Sprintf("k%04d", i), Int(int64(i)))
	}
	_ = bld.Close()
	s, err := bld.Slice()
	require.NoError(b, err)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("k0777")
	}
}

func BenchmarkParse(b *testing.B) {
	data, err := json.Marshal(benchValue)
	require.NoError(b, err)
	p := NewParser(nil)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.Parse(data)
	}
}

func BenchmarkDump(b *testing.B) {
	res, err := Marshal(benchValue)
	require.NoError(b, err)
	s := NewSlice(res)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = DumpString(s, nil)
	}
}

func BenchmarkGoJSON(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(benchValue)
	}
}
