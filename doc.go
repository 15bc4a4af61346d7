// Package vpack implements a compact, self-describing binary format for
// nested schema-less values, laid out the way VelocyPack lays them out, and
// the engine around it.
//
// A Builder writes one value into an owned Buffer: scalars are appended
// directly, containers are opened, filled and closed, and Close backpatches
// the container header and index table in place. A Slice is a read-only,
// zero-copy view over encoded bytes; accessors check the leading tag and
// return ValueTypeMismatch when asked for the wrong kind. Array and Object
// members are reached through At, Get and the iterators, using the index
// table when the container has one.
//
// Parser converts JSON text into a Builder and Dumper renders a Slice back
// to JSON through a Sink. Marshal and Unmarshal convert Go values.
//
//	b, err := vpack.FromJSON([]byte(`{"a": 1, "b": [true, null, "x"]}`), nil)
//	if err != nil {
//		return err
//	}
//	s, _ := b.Slice()
//	a, _ := s.Get("a")
//	n, _ := a.GetInt() // 1
//
// Slices hold a reference to the bytes they view, so the garbage collector
// keeps those bytes alive. A Builder that has handed out a Slice never
// writes into those bytes again: Reset moves it to fresh storage.
//
// Bytes from untrusted sources should pass Validate before a Slice is
// created over them.
package vpack
