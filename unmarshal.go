package vpack

import (
	"bytes"
	"reflect"
	"time"
)

// Decoder fills Go values from vpack values.
type Decoder struct {
	opts Options
}

// NewDecoder returns a Decoder; nil opts means defaults. With
// UnsafeStrings set, decoded strings alias the input bytes.
func NewDecoder(opts *Options) *Decoder {
	return &Decoder{opts: resolveOptions(opts)}
}

// Unmarshal validates data and decodes it into out, which must be a non-nil
// pointer. Raw bytes may not hold Externals; use UnmarshalSlice for values
// built in this process.
func Unmarshal(data []byte, out any) error {
	return NewDecoder(nil).Unmarshal(data, out)
}

// UnmarshalSlice decodes an already trusted Slice into out.
func UnmarshalSlice(s Slice, out any) error {
	return NewDecoder(nil).DecodeSlice(s, out)
}

func (d *Decoder) Unmarshal(data []byte, out any) error {
	opts := d.opts
	opts.DisallowExternals = true
	if err := Validate(data, &opts); err != nil {
		return err
	}
	return d.DecodeSlice(NewSlice(data), out)
}

func (d *Decoder) DecodeSlice(s Slice, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errorf(ValueTypeMismatch, "expected non-nil pointer, got %T", out)
	}
	return d.decode(s, v.Elem())
}

func (d *Decoder) decode(s Slice, v reflect.Value) error {
	s = s.Value().ResolveExternal().Value()

	switch v.Type() {
	case sliceType:
		v.Set(reflect.ValueOf(s))
		return nil
	case timeType:
		return d.decodeTime(s, v)
	}

	k := v.Kind()
	if s.IsNull() {
		v.SetZero()
		return nil
	}
	switch {
	case k == reflect.Pointer:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return d.decode(s, v.Elem())
	case k == reflect.Interface:
		if v.NumMethod() != 0 {
			return errorf(NotImplemented, "cannot decode into %s", v.Type())
		}
		x, err := s.ToGo()
		if err != nil {
			return err
		}
		if x == nil {
			v.SetZero()
			return nil
		}
		v.Set(reflect.ValueOf(x))
		return nil
	case k == reflect.Bool:
		b, err := s.GetBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case isIntKind(k):
		x, err := s.GetInt()
		if err != nil {
			return err
		}
		return setInt(v, x)
	case isUintKind(k):
		x, err := s.GetUInt()
		if err != nil {
			return err
		}
		return setUint(v, x)
	case isFloatKind(k):
		f, err := s.GetNumber()
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil
	case k == reflect.String:
		var str string
		var err error
		if d.opts.UnsafeStrings {
			str, err = s.GetStringUnsafe()
		} else {
			str, err = s.GetString()
		}
		if err != nil {
			return err
		}
		v.SetString(str)
		return nil
	case k == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 && (s.IsBinary() || s.IsString()):
		var raw []byte
		if s.IsBinary() {
			raw, _ = s.GetBinary()
		} else {
			raw, _ = s.GetStringBytes()
		}
		v.SetBytes(bytes.Clone(raw))
		return nil
	case k == reflect.Slice:
		n, err := s.Length()
		if err != nil || !s.IsArray() {
			return s.mismatch("array")
		}
		out := reflect.MakeSlice(v.Type(), n, n)
		for i, m := range s.Elements() {
			if err := d.decode(m, out.Index(i)); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil
	case k == reflect.Array:
		if !s.IsArray() {
			return s.mismatch("array")
		}
		v.SetZero()
		for i, m := range s.Elements() {
			if i >= v.Len() {
				break
			}
			if err := d.decode(m, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case k == reflect.Map:
		return d.decodeMap(s, v)
	case k == reflect.Struct:
		return d.decodeStruct(s, v)
	}
	return errorf(NotImplemented, "cannot decode into %s", v.Type())
}

func (d *Decoder) decodeTime(s Slice, v reflect.Value) error {
	switch {
	case s.IsNull():
		v.SetZero()
		return nil
	case s.IsString():
		str, _ := s.GetString()
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return errorf(ValueTypeMismatch, "bad time %q", str)
		}
		v.Set(reflect.ValueOf(t))
		return nil
	}
	t, err := s.GetTime()
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(t))
	return nil
}

func (d *Decoder) decodeMap(s Slice, v reflect.Value) error {
	t := v.Type()
	if t.Key().Kind() != reflect.String {
		return errorf(NotImplemented, "unsupported map key type %s", t.Key())
	}
	if !s.IsObject() {
		return s.mismatch("object")
	}
	if v.IsNil() {
		v.Set(reflect.MakeMap(t))
	}
	for key, val := range s.Members() {
		name, err := key.Value().GetString()
		if err != nil {
			return err
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := d.decode(val, elem); err != nil {
			return err
		}
		v.SetMapIndex(reflect.ValueOf(name).Convert(t.Key()), elem)
	}
	return nil
}

func (d *Decoder) decodeStruct(s Slice, v reflect.Value) error {
	if !s.IsObject() {
		return s.mismatch("object")
	}
	plan := plans.get(v.Type())
	for key, val := range s.Members() {
		name, err := key.Value().GetStringBytes()
		if err != nil {
			return err
		}
		i, ok := plan.byName[string(name)]
		if !ok {
			continue
		}
		if err := d.decode(val, v.Field(plan.fields[i].idx)); err != nil {
			return err
		}
	}
	return nil
}

// ToGo converts s into plain Go values: nil, bool, int64, uint64, float64,
// string, []byte, time.Time, []any and map[string]any. Tags are dropped and
// Externals followed. MinKey, MaxKey, BCD and None have no Go form.
func (s Slice) ToGo() (any, error) {
	s = s.Value().ResolveExternal().Value()
	switch s.Type() {
	case TypeNull:
		return nil, nil
	case TypeBool:
		return s.GetBool()
	case TypeDouble:
		return s.GetDouble()
	case TypeInt, TypeSmallInt:
		return s.GetInt()
	case TypeUInt:
		return s.GetUInt()
	case TypeString:
		return s.GetString()
	case TypeBinary:
		b, _ := s.GetBinary()
		return bytes.Clone(b), nil
	case TypeCustom:
		return bytes.Clone(s.Bytes()), nil
	case TypeUTCDate:
		return s.GetTime()
	case TypeArray:
		n, _ := s.Length()
		out := make([]any, 0, n)
		for _, m := range s.Elements() {
			x, err := m.ToGo()
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case TypeObject:
		n, _ := s.Length()
		out := make(map[string]any, n)
		for key, val := range s.Members() {
			k, err := key.Value().GetString()
			if err != nil {
				return nil, err
			}
			if _, dup := out[k]; dup {
				continue
			}
			x, err := val.ToGo()
			if err != nil {
				return nil, err
			}
			out[k] = x
		}
		return out, nil
	}
	return nil, errorf(NotImplemented, "%s has no go equivalent", s.Type())
}
