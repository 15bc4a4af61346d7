package vpack

import (
	"bytes"
	"encoding/hex"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// dateLayout is RFC 3339 with fixed millisecond precision.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Dumper renders Slices as JSON text into a Sink. Members are written in the
// order they are stored; the Dumper never re-sorts keys.
type Dumper struct {
	opts    Options
	sink    Sink
	scratch []byte
}

// NewDumper returns a Dumper writing to sink. opts is copied; nil means
// defaults.
func NewDumper(sink Sink, opts *Options) *Dumper {
	return &Dumper{opts: resolveOptions(opts), sink: sink, scratch: make([]byte, 0, 64)}
}

// Sink returns the destination the Dumper writes to.
func (d *Dumper) Sink() Sink { return d.sink }

// Dump writes s. On error the sink may hold partial output.
func (d *Dumper) Dump(s Slice) error {
	return d.value(s, Slice{}, 0)
}

// DumpString renders s into a string.
func DumpString(s Slice, opts *Options) (string, error) {
	var sb strings.Builder
	if err := NewDumper(&sb, opts).Dump(s); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// DumpTo renders s to w through a buffered sink.
func DumpTo(w io.Writer, s Slice, opts *Options) error {
	bw := NewWriterSink(w)
	if err := NewDumper(bw, opts).Dump(s); err != nil {
		return err
	}
	return bw.Flush()
}

func (d *Dumper) value(s Slice, parent Slice, depth int) error {
	switch s.Type() {
	case TypeNull:
		return d.raw("null")
	case TypeBool:
		if s.IsTrue() {
			return d.raw("true")
		}
		return d.raw("false")
	case TypeArray:
		return d.array(s, depth)
	case TypeObject:
		return d.object(s, depth)
	case TypeDouble:
		v, _ := s.GetDouble()
		return d.double(s, v)
	case TypeInt, TypeSmallInt:
		v, _ := s.GetInt()
		d.scratch = strconv.AppendInt(d.scratch[:0], v, 10)
		_, err := d.sink.Write(d.scratch)
		return err
	case TypeUInt:
		v, _ := s.GetUInt()
		d.scratch = strconv.AppendUint(d.scratch[:0], v, 10)
		_, err := d.sink.Write(d.scratch)
		return err
	case TypeString:
		b, _ := s.GetStringBytes()
		return d.appendString(b)
	case TypeExternal:
		if d.opts.DisallowExternals {
			return errorf(NoJsonEquivalent, "externals disallowed")
		}
		return d.value(s.ResolveExternal(), parent, depth)
	case TypeTagged:
		if d.opts.DisallowTags {
			return errorf(NoJsonEquivalent, "tagged values disallowed")
		}
		return d.value(s.Value(), parent, depth)
	case TypeBinary:
		return d.unsupported(s, func() error {
			b, _ := s.GetBinary()
			return d.hexString(b)
		})
	case TypeUTCDate:
		return d.unsupported(s, func() error {
			t, _ := s.GetTime()
			return d.appendString([]byte(t.Format(dateLayout)))
		})
	case TypeCustom:
		if d.opts.DisallowCustom {
			return errorf(NoJsonEquivalent, "custom types disallowed")
		}
		if d.opts.CustomTypeHandler != nil {
			return d.opts.CustomTypeHandler.DumpCustom(s, d.sink, parent)
		}
		return d.unsupported(s, func() error { return d.hexString(s.Bytes()) })
	}
	return d.unsupported(s, func() error { return d.raw("null") })
}

// unsupported applies UnsupportedTypeBehavior; convert writes the converted
// form.
func (d *Dumper) unsupported(s Slice, convert func() error) error {
	switch d.opts.UnsupportedTypeBehavior {
	case NullifyUnsupportedType:
		return d.raw("null")
	case FailOnUnsupportedType:
		return errorf(NoJsonEquivalent, "cannot dump %s", s.Type())
	}
	return convert()
}

func (d *Dumper) raw(s string) error {
	_, err := d.sink.WriteString(s)
	return err
}

// double writes v so that it re-parses to the same bits: shortest
// round-trip digits, always with a fraction or exponent.
func (d *Dumper) double(s Slice, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if !d.opts.AllowNonFiniteNumbers {
			return d.unsupported(s, func() error { return d.raw("null") })
		}
		switch {
		case math.IsNaN(v):
			return d.raw("NaN")
		case v > 0:
			return d.raw("Infinity")
		}
		return d.raw("-Infinity")
	}
	d.scratch = strconv.AppendFloat(d.scratch[:0], v, 'g', -1, 64)
	if !bytes.ContainsAny(d.scratch, ".e") {
		d.scratch = append(d.scratch, '.', '0')
	}
	_, err := d.sink.Write(d.scratch)
	return err
}

func (d *Dumper) hexString(b []byte) error {
	d.scratch = append(d.scratch[:0], '"')
	d.scratch = hex.AppendEncode(d.scratch, b)
	d.scratch = append(d.scratch, '"')
	_, err := d.sink.Write(d.scratch)
	return err
}

func (d *Dumper) newline(depth int) error {
	if !d.opts.PrettyPrint {
		return nil
	}
	if err := d.sink.WriteByte('\n'); err != nil {
		return err
	}
	for i := 0; i < depth; i++ {
		if _, err := d.sink.WriteString("  "); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) array(s Slice, depth int) error {
	if err := d.sink.WriteByte('['); err != nil {
		return err
	}
	it, _ := NewArrayIterator(s)
	if !it.Valid() {
		return d.sink.WriteByte(']')
	}
	for ; it.Valid(); it.Next() {
		if it.Index() > 0 {
			if err := d.sink.WriteByte(','); err != nil {
				return err
			}
		}
		if err := d.newline(depth + 1); err != nil {
			return err
		}
		if err := d.value(it.Value(), s, depth+1); err != nil {
			return err
		}
	}
	if err := d.newline(depth); err != nil {
		return err
	}
	return d.sink.WriteByte(']')
}

func (d *Dumper) object(s Slice, depth int) error {
	if err := d.sink.WriteByte('{'); err != nil {
		return err
	}
	it, _ := NewObjectIterator(s)
	if !it.Valid() {
		return d.sink.WriteByte('}')
	}
	sep := ":"
	if d.opts.PrettyPrint {
		sep = ": "
	}
	for ; it.Valid(); it.Next() {
		if it.Index() > 0 {
			if err := d.sink.WriteByte(','); err != nil {
				return err
			}
		}
		if err := d.newline(depth + 1); err != nil {
			return err
		}
		k, err := it.Key().Value().GetStringBytes()
		if err != nil {
			return err
		}
		if err := d.appendString(k); err != nil {
			return err
		}
		if _, err := d.sink.WriteString(sep); err != nil {
			return err
		}
		if err := d.value(it.Value(), s, depth+1); err != nil {
			return err
		}
	}
	if err := d.newline(depth); err != nil {
		return err
	}
	return d.sink.WriteByte('}')
}

const hexDigits = "0123456789abcdef"

// AppendString writes str as a quoted, escaped JSON string. Custom type
// handlers may use it to emit string output.
func (d *Dumper) AppendString(str string) error {
	return d.appendString([]byte(str))
}

func (d *Dumper) appendString(b []byte) error {
	out := append(d.scratch[:0], '"')
	for i := 0; i < len(b); {
		c := b[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				out = append(out, '\\', c)
			case c == '/' && d.opts.EscapeForwardSlashes:
				out = append(out, '\\', '/')
			case c >= 0x20:
				out = append(out, c)
			case c == '\n':
				out = append(out, '\\', 'n')
			case c == '\r':
				out = append(out, '\\', 'r')
			case c == '\t':
				out = append(out, '\\', 't')
			case c == '\b':
				out = append(out, '\\', 'b')
			case c == '\f':
				out = append(out, '\\', 'f')
			default:
				out = append(out, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			continue
		}
		if !d.opts.EscapeUnicode {
			out = append(out, c)
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			out = appendUnicodeEscape(out, r1)
			out = appendUnicodeEscape(out, r2)
		} else {
			out = appendUnicodeEscape(out, r)
		}
		i += size
	}
	out = append(out, '"')
	d.scratch = out
	_, err := d.sink.Write(out)
	return err
}

func appendUnicodeEscape(out []byte, r rune) []byte {
	return append(out, '\\', 'u',
		hexDigits[r>>12&0xf], hexDigits[r>>8&0xf], hexDigits[r>>4&0xf], hexDigits[r&0xf])
}
