package main

import (
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/vpack"
)

// Memory profiling harness: runs Marshal, Unmarshal, JSON parse and dump in
// a loop and writes a heap profile.
func main() {
	iterations := flag.Int("n", 10000, "iterations")
	out := flag.String("memprofile", "mem.prof", "heap profile output")
	linger := flag.Duration("linger", 0, "keep the pprof endpoint up this long after the run")
	flag.Parse()

	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	type NewStruct struct {
		Val      []string  `vpack:"val"`
		Mod      []int8    `vpack:"mod"`
		Integers []int16   `vpack:"integers"`
		Float3   []float32 `vpack:"float3"`
		Float6   []float64 `vpack:"float6"`
	}
	z := NewStruct{
		Val:      []string{"azerty", "hello", "world", "random"},
		Mod:      []int8{12, 10, 13, 0},
		Integers: []int16{100, 250, 300},
		Float3:   []float32{12.13, 16.23, 75.1},
		Float6:   []float64{100.5, 165.63, 153.5},
	}
	enc := vpack.NewEncoder(nil)
	dec := vpack.NewDecoder(&vpack.Options{UnsafeStrings: true})
	p := vpack.NewParser(nil)
	for i := 0; i < *iterations; i++ {
		data, err := enc.Marshal(z)
		if err != nil {
			log.Fatal(err)
		}
		res := &NewStruct{}
		if err := dec.Unmarshal(data, res); err != nil {
			log.Fatal(err)
		}
		text, err := vpack.DumpString(vpack.NewSlice(data), nil)
		if err != nil {
			log.Fatal(err)
		}
		if err := p.Parse([]byte(text)); err != nil {
			log.Fatal(err)
		}
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatal(err)
	}
	time.Sleep(*linger)
}
