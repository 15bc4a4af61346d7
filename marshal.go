package vpack

import (
	"reflect"
	"slices"
	"sync"
	"time"
)

// ErrUnsupportedType is returned for Go types with no encoding, such as
// channels, functions and maps with non-string keys.
var ErrUnsupportedType = &Error{Code: NotImplemented, Msg: "unsupported go type", Offset: -1}

type fieldPlan struct {
	idx       int
	name      string
	omitEmpty bool
}

type structPlan struct {
	fields []fieldPlan
	byName map[string]int
}

// planCache holds one field plan per struct type. It is shared by all
// Encoders and Decoders and safe for concurrent use.
type planCache struct {
	mu    sync.RWMutex
	plans map[reflect.Type]*structPlan
}

var plans = &planCache{plans: make(map[reflect.Type]*structPlan)}

func (c *planCache) get(t reflect.Type) *structPlan {
	c.mu.RLock()
	if plan, ok := c.plans[t]; ok {
		c.mu.RUnlock()
		return plan
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plans[t]; ok {
		return plan
	}

	plan := &structPlan{byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("vpack")
		if tag == "-" {
			continue
		}
		name, omitEmpty := parseTag(tag)
		if name == "" {
			name = sf.Name
		}
		plan.byName[name] = len(plan.fields)
		plan.fields = append(plan.fields, fieldPlan{idx: i, name: name, omitEmpty: omitEmpty})
	}
	c.plans[t] = plan
	return plan
}

// Encoder converts Go values into vpack values. Struct field plans are
// cached per type. An Encoder is not safe for concurrent use; use one per
// goroutine.
type Encoder struct {
	b *Builder
}

// NewEncoder returns an Encoder building with opts; nil means defaults.
func NewEncoder(opts *Options) *Encoder {
	return &Encoder{b: NewBuilder(opts)}
}

// Marshal encodes v with default options.
func Marshal(v any) ([]byte, error) {
	return NewEncoder(nil).Marshal(v)
}

// Marshal encodes v and returns the bytes of the root value. The result
// stays valid across later calls.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	e.b.Reset()
	if err := e.EncodeTo(e.b, v); err != nil {
		e.b.Reset()
		return nil, err
	}
	return e.b.Bytes()
}

// EncodeTo adds v to b, which may have open containers. On error b is
// unchanged.
func (e *Encoder) EncodeTo(b *Builder, v any) error {
	m := b.mark()
	if err := e.encode(b, reflect.ValueOf(v)); err != nil {
		b.rollback(m)
		return err
	}
	return nil
}

func (e *Encoder) encode(b *Builder, v reflect.Value) error {
	if !v.IsValid() {
		return b.Add(Null())
	}
	switch v.Type() {
	case timeType:
		return b.Add(Time(v.Interface().(time.Time)))
	case sliceType:
		s := v.Interface().(Slice)
		if len(s.data) == 0 || s.IsNone() {
			return b.Add(Null())
		}
		return b.Add(SliceValue(s))
	}

	switch k := v.Kind(); {
	case k == reflect.Pointer || k == reflect.Interface:
		if v.IsNil() {
			return b.Add(Null())
		}
		return e.encode(b, v.Elem())
	case k == reflect.Bool:
		return b.Add(Bool(v.Bool()))
	case isIntKind(k):
		return b.Add(Int(v.Int()))
	case isUintKind(k):
		return b.Add(UInt(v.Uint()))
	case isFloatKind(k):
		return b.Add(Double(v.Float()))
	case k == reflect.String:
		return b.Add(String(v.String()))
	case k == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		if v.IsNil() {
			return b.Add(Null())
		}
		return b.Add(Binary(v.Bytes()))
	case k == reflect.Slice || k == reflect.Array:
		if k == reflect.Slice && v.IsNil() {
			return b.Add(Null())
		}
		if err := b.OpenArray(); err != nil {
			return err
		}
		for i := 0; i < v.Len(); i++ {
			if err := e.encode(b, v.Index(i)); err != nil {
				return err
			}
		}
		return b.Close()
	case k == reflect.Map:
		return e.encodeMap(b, v)
	case k == reflect.Struct:
		return e.encodeStruct(b, v)
	}
	return errorf(NotImplemented, "unsupported go type %s", v.Type())
}

func (e *Encoder) encodeMap(b *Builder, v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return errorf(NotImplemented, "unsupported map key type %s", v.Type().Key())
	}
	if v.IsNil() {
		return b.Add(Null())
	}
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)
	if err := b.OpenObject(); err != nil {
		return err
	}
	kt := v.Type().Key()
	for _, k := range keys {
		if err := b.AddKey(k); err != nil {
			return err
		}
		if err := e.encode(b, v.MapIndex(reflect.ValueOf(k).Convert(kt))); err != nil {
			return err
		}
	}
	return b.Close()
}

func (e *Encoder) encodeStruct(b *Builder, v reflect.Value) error {
	plan := plans.get(v.Type())
	if err := b.OpenObject(); err != nil {
		return err
	}
	for _, field := range plan.fields {
		fv := v.Field(field.idx)
		if field.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if err := b.AddKey(field.name); err != nil {
			return err
		}
		if err := e.encode(b, fv); err != nil {
			return err
		}
	}
	return b.Close()
}
