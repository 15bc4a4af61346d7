package vpack

import (
	"errors"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"
)

// Parser turns JSON text into a binary value, writing straight into a
// Builder without an intermediate tree. A Parser is not safe for concurrent
// use but may be reused for many inputs.
type Parser struct {
	opts    Options
	b       *Builder
	data    []byte
	pos     int
	depth   int
	scratch []byte
}

// NewParser returns a Parser with its own Builder. opts is copied; nil means
// defaults.
func NewParser(opts *Options) *Parser {
	o := resolveOptions(opts)
	return &Parser{opts: o, b: NewBuilder(&o)}
}

// Builder returns the Builder holding the last parse result.
func (p *Parser) Builder() *Builder { return p.b }

// Steal hands the Builder to the caller; the Parser continues with a new one.
func (p *Parser) Steal() *Builder {
	b := p.b
	p.b = NewBuilder(&p.opts)
	return b
}

// Parse replaces the Builder's contents with the value in data. data must
// hold exactly one JSON value, optionally surrounded by whitespace. On error
// the Builder is left empty.
func (p *Parser) Parse(data []byte) error {
	p.b.Reset()
	if err := p.parse(data); err != nil {
		p.b.Reset()
		return err
	}
	return nil
}

// FromJSON parses data into a new Builder.
func FromJSON(data []byte, opts *Options) (*Builder, error) {
	p := NewParser(opts)
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p.Builder(), nil
}

// ParseInto parses one JSON value from data and adds it to b, which may have
// open containers. b's options apply. On error b is unchanged.
func ParseInto(b *Builder, data []byte) error {
	p := &Parser{opts: b.opts, b: b}
	m := b.mark()
	if err := p.parse(data); err != nil {
		b.rollback(m)
		return err
	}
	return nil
}

func (p *Parser) parse(data []byte) error {
	p.data, p.pos, p.depth = data, 0, 0
	defer func() { p.data = nil }()

	p.skipWhitespace()
	err := p.value()
	if err == nil {
		p.skipWhitespace()
		if p.pos < len(p.data) {
			err = p.fail("trailing characters after value")
		}
	}
	if err != nil {
		p.opts.logger().Debug("vpack: parse failed", "offset", p.pos, "err", err)
	}
	return err
}

func (p *Parser) fail(msg string) error {
	return errorAt(ParseError, p.pos, msg)
}

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// at wraps builder errors with the current input position.
func (p *Parser) at(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Offset < 0 {
		return errorAt(e.Code, p.pos, e.Msg)
	}
	return err
}

func (p *Parser) value() error {
	if p.pos >= len(p.data) {
		return p.fail("unexpected end of input")
	}
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.string()
		if err != nil {
			return err
		}
		return p.at(p.b.Add(String(s)))
	case c == 't':
		return p.literal("true", Bool(true))
	case c == 'f':
		return p.literal("false", Bool(false))
	case c == 'n':
		return p.literal("null", Null())
	case c == 'N' && p.opts.AllowNonFiniteNumbers:
		return p.literal("NaN", Double(math.NaN()))
	case c == 'I' && p.opts.AllowNonFiniteNumbers:
		return p.literal("Infinity", Double(math.Inf(1)))
	case c == '-' && p.opts.AllowNonFiniteNumbers && p.pos+1 < len(p.data) && p.data[p.pos+1] == 'I':
		return p.literal("-Infinity", Double(math.Inf(-1)))
	case c == '-' || c >= '0' && c <= '9':
		return p.number()
	case c < 0x20:
		return errorAt(UnexpectedControlCharacter, p.pos, "control character outside string")
	}
	return p.fail("unexpected character")
}

func (p *Parser) literal(word string, v Value) error {
	if len(p.data)-p.pos < len(word) || string(p.data[p.pos:p.pos+len(word)]) != word {
		return p.fail("invalid literal")
	}
	p.pos += len(word)
	return p.at(p.b.Add(v))
}

func (p *Parser) enter() error {
	if p.opts.NestingLimit > 0 && p.depth >= p.opts.NestingLimit {
		return errorAt(TooDeepNesting, p.pos, "nesting limit exceeded")
	}
	p.depth++
	return nil
}

func (p *Parser) array() error {
	if err := p.enter(); err != nil {
		return err
	}
	if err := p.b.OpenArray(); err != nil {
		return p.at(err)
	}
	p.pos++
	p.skipWhitespace()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		p.depth--
		return p.at(p.b.Close())
	}
	for {
		p.skipWhitespace()
		if err := p.value(); err != nil {
			return err
		}
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return p.fail("unterminated array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			p.depth--
			return p.at(p.b.Close())
		default:
			return p.fail("expecting ',' or ']'")
		}
	}
}

func (p *Parser) object() error {
	if err := p.enter(); err != nil {
		return err
	}
	if err := p.b.OpenObject(); err != nil {
		return p.at(err)
	}
	p.pos++
	p.skipWhitespace()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		p.depth--
		return p.at(p.b.Close())
	}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) || p.data[p.pos] != '"' {
			return p.fail("expecting string key")
		}
		key, err := p.string()
		if err != nil {
			return err
		}
		if err := p.b.AddKey(key); err != nil {
			return p.at(err)
		}
		p.skipWhitespace()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return p.fail("expecting ':'")
		}
		p.pos++
		p.skipWhitespace()
		if err := p.value(); err != nil {
			return err
		}
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return p.fail("unterminated object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			p.depth--
			return p.at(p.b.Close())
		default:
			return p.fail("expecting ',' or '}'")
		}
	}
}

// string decodes the string literal at p.pos. The result aliases the
// parser's scratch space and is only valid until the next call; the Builder
// copies it when added.
func (p *Parser) string() (string, error) {
	p.pos++
	out := p.scratch[:0]
	for {
		if p.pos >= len(p.data) {
			return "", p.fail("unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			p.pos++
			p.scratch = out
			if len(out) == 0 {
				return "", nil
			}
			return unsafe.String(&out[0], len(out)), nil
		case c == '\\':
			var err error
			if out, err = p.escape(out); err != nil {
				return "", err
			}
		case c < 0x20:
			return "", errorAt(UnexpectedControlCharacter, p.pos, "control character in string")
		case c < utf8.RuneSelf:
			out = append(out, c)
			p.pos++
		default:
			if p.opts.ValidateUTF8Strings {
				r, size := utf8.DecodeRune(p.data[p.pos:])
				if r == utf8.RuneError && size <= 1 {
					return "", errorAt(InvalidUtf8Sequence, p.pos, "invalid utf-8 sequence")
				}
				out = append(out, p.data[p.pos:p.pos+size]...)
				p.pos += size
				continue
			}
			out = append(out, c)
			p.pos++
		}
	}
}

// escape decodes one backslash sequence starting at p.pos.
func (p *Parser) escape(out []byte) ([]byte, error) {
	if p.pos+1 >= len(p.data) {
		return out, p.fail("unterminated escape")
	}
	c := p.data[p.pos+1]
	p.pos += 2
	switch c {
	case '"', '\\', '/':
		return append(out, c), nil
	case 'b':
		return append(out, '\b'), nil
	case 'f':
		return append(out, '\f'), nil
	case 'n':
		return append(out, '\n'), nil
	case 'r':
		return append(out, '\r'), nil
	case 't':
		return append(out, '\t'), nil
	case 'u':
		r, err := p.hex4()
		if err != nil {
			return out, err
		}
		if utf16.IsSurrogate(r) {
			r2 := utf8.RuneError
			if r < 0xdc00 && p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
				save := p.pos
				p.pos += 2
				lo, err := p.hex4()
				if err != nil {
					return out, err
				}
				if r2 = utf16.DecodeRune(r, lo); r2 == utf8.RuneError {
					p.pos = save
				}
			}
			r = r2
		}
		return utf8.AppendRune(out, r), nil
	}
	p.pos -= 2
	return out, p.fail("invalid escape sequence")
}

func (p *Parser) hex4() (rune, error) {
	if len(p.data)-p.pos < 4 {
		return 0, p.fail("truncated unicode escape")
	}
	var r rune
	for _, c := range p.data[p.pos : p.pos+4] {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		default:
			return 0, p.fail("invalid unicode escape")
		}
	}
	p.pos += 4
	return r, nil
}

// number parses a JSON number. Integers without fraction or exponent are
// stored as UInt or Int; those beyond 64 bits become doubles.
func (p *Parser) number() error {
	start := p.pos
	neg := p.data[p.pos] == '-'
	if neg {
		p.pos++
	}
	if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
		return p.fail("expecting digit")
	}
	var mag uint64
	overflow := false
	if p.data[p.pos] == '0' {
		p.pos++
	} else {
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			d := uint64(p.data[p.pos] - '0')
			if mag > (math.MaxUint64-d)/10 {
				overflow = true
			}
			mag = mag*10 + d
			p.pos++
		}
	}
	float := false
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		float = true
		p.pos++
		if !p.digits() {
			return p.fail("expecting digit after '.'")
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		float = true
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if !p.digits() {
			return p.fail("expecting digit in exponent")
		}
	}

	switch {
	case !float && !overflow && !neg:
		return p.at(p.b.Add(UInt(mag)))
	case !float && !overflow && mag <= 1<<63:
		return p.at(p.b.Add(Int(int64(-mag))))
	}
	text := p.data[start:p.pos]
	d, err := strconv.ParseFloat(unsafe.String(&text[0], len(text)), 64)
	if err != nil && (math.IsInf(d, 0) || !errors.Is(err, strconv.ErrRange)) {
		return errorAt(NumberOutOfRange, start, "number out of range")
	}
	return p.at(p.b.Add(Double(d)))
}

func (p *Parser) digits() bool {
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	return p.pos > start
}
