package vpack

import (
	"reflect"
	"strings"
	"time"
)

var (
	timeType  = reflect.TypeFor[time.Time]()
	sliceType = reflect.TypeFor[Slice]()
)

// classify field kinds
func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// isEmptyValue reports the values skipped by omitempty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	switch k := v.Kind(); {
	case isIntKind(k):
		return v.Int() == 0
	case isUintKind(k):
		return v.Uint() == 0
	case isFloatKind(k):
		return v.Float() == 0
	}
	if v.Type() == timeType {
		return v.Interface().(time.Time).IsZero()
	}
	return false
}

// parseTag splits a `vpack:"name,omitempty"` tag.
func parseTag(tag string) (name string, omitEmpty bool) {
	name, opts, _ := strings.Cut(tag, ",")
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// setInt stores x into an int kind value, failing when it does not fit.
func setInt(dst reflect.Value, x int64) error {
	if dst.OverflowInt(x) {
		return errorf(NumberOutOfRange, "%d overflows %s", x, dst.Type())
	}
	dst.SetInt(x)
	return nil
}

// setUint stores x into a uint kind value, failing when it does not fit.
func setUint(dst reflect.Value, x uint64) error {
	if dst.OverflowUint(x) {
		return errorf(NumberOutOfRange, "%d overflows %s", x, dst.Type())
	}
	dst.SetUint(x)
	return nil
}
