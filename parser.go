// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"math"
	"strconv"
)

// Default limits applied by a Parser.
const (
	DefaultMaxNumberLen = 127   // characters in a numeral
	DefaultMaxDepth     = 10000 // nesting of arrays and objects
)

// A Parser parses JSON values from a Source into encoded Buffers. A zero
// Parser is ready for use with default settings. A Parser holds no state
// between calls, so it may be shared by concurrent parses provided each has
// its own Source.
type Parser struct {
	anyKeys   bool
	maxNumber int // 0 means default
	maxDepth  int // 0 means default, negative means unlimited
	alloc     Allocator
}

// AllowAnyKeys configures the parser to accept any value (true) or only
// strings (false) as object keys. By default only strings are accepted.
func (p *Parser) AllowAnyKeys(ok bool) { p.anyKeys = ok }

// SetMaxNumberLen sets the maximum length in characters of a numeral. A
// longer numeral is reported as ErrNumberTooLong. If n <= 0, the default
// DefaultMaxNumberLen is used.
func (p *Parser) SetMaxNumberLen(n int) { p.maxNumber = max(n, 0) }

// SetMaxDepth sets the maximum nesting depth of arrays and objects. Deeper
// nesting is reported as ErrDepth. If n <= 0, nesting is not limited.
func (p *Parser) SetMaxDepth(n int) {
	if n <= 0 {
		p.maxDepth = -1
	} else {
		p.maxDepth = n
	}
}

// SetAllocator sets the allocator used to grow buffers. If a is nil, an
// ExactAllocator is used.
func (p *Parser) SetAllocator(a Allocator) { p.alloc = a }

// Release returns buf, which must have been produced by p, to the allocator
// of p. It is only necessary for allocators that track their buffers.
func (p *Parser) Release(buf Buffer) { p.allocator().Release(buf) }

func (p *Parser) allocator() Allocator {
	if p.alloc == nil {
		return ExactAllocator{}
	}
	return p.alloc
}

// Parse parses a single JSON value from src using default settings.
// See [Parser.Parse].
func Parse(src Source) (Buffer, int, error) { return new(Parser).Parse(src) }

// Parse parses a single JSON value from src and returns its encoding along
// with the first non-whitespace character following the value, or EOF.
// Leading whitespace is skipped; input after the value is not examined beyond
// the returned character, and the caller decides what may follow.
//
// In case of error, Parse returns a nil buffer and an error of concrete type
// [*ParseError]; the partial buffer is released before Parse returns. The
// returned character is the last character read.
func (p *Parser) Parse(src Source) (Buffer, int, error) {
	st := p.newState(src)
	st.skipSpace()
	return st.parse()
}

func (p *Parser) newState(src Source) *parser {
	st := &parser{
		src:       src,
		c:         EOF,
		loc:       LineCol{Line: 1},
		w:         writer{alloc: p.allocator()},
		anyKeys:   p.anyKeys,
		maxNumber: p.maxNumber,
		maxDepth:  p.maxDepth,
	}
	st.at = st.loc
	if st.maxNumber == 0 {
		st.maxNumber = DefaultMaxNumberLen
	}
	if st.maxDepth == 0 {
		st.maxDepth = DefaultMaxDepth
	}
	return st
}

// parser is the state of a single parse. Each grammar method is entered with
// the first character of its production in c, and returns with the first
// non-whitespace character after the production in c.
type parser struct {
	src     Source
	c       int     // current character
	off     int     // number of characters consumed
	loc, at LineCol // location of the next character, and of c
	w       writer
	depth   int
	scratch []byte

	anyKeys   bool
	maxNumber int
	maxDepth  int // negative means unlimited
}

// parse parses one value starting at the current character and transfers the
// completed buffer to the caller.
func (p *parser) parse() (Buffer, int, error) {
	p.depth = 0
	if err := p.value(); err != nil {
		p.w.release()
		return nil, p.c, p.fail(err)
	}
	buf := p.w.buf
	p.w.buf = nil
	return buf, p.c, nil
}

func (p *parser) fail(err error) error {
	perr := &ParseError{Code: codeOf(err), Last: p.c, Offset: p.off, Location: p.at}
	if _, ok := err.(Code); !ok {
		perr.err = err
	} else if p.c < 0 {
		if es, ok := p.src.(errSource); ok {
			perr.err = es.Err()
		}
	}
	return perr
}

// read reads the next character into c and returns it.
func (p *parser) read() int {
	c := p.src.Get()
	p.at = p.loc
	if c < 0 {
		c = EOF
	} else {
		p.loc.advance(c)
		p.off++
	}
	p.c = c
	return c
}

// skipSpace reads characters until one that is not whitespace, and returns it.
func (p *parser) skipSpace() int {
	for isSpace(p.read()) {
	}
	return p.c
}

// trim skips whitespace if the current character is whitespace.
func (p *parser) trim() {
	if isSpace(p.c) {
		p.skipSpace()
	}
}

// emit appends a value with the given tag and n words of payload, and returns
// the payload words.
func (p *parser) emit(tag Tag, n int) (Buffer, error) {
	out, err := p.w.reserve(1 + n)
	if err != nil {
		return nil, err
	}
	out[0] = Word(tag)
	return out[1:], nil
}

func (p *parser) value() error {
	switch c := p.c; {
	case c == '[':
		return p.array()
	case c == '{':
		return p.object()
	case c == '"':
		return p.string()
	case c == '-' || isDigit(c):
		return p.number()
	case c == 'f':
		return p.literal(False)
	case c == 'n':
		return p.literal(Null)
	case c == 't':
		return p.literal(True)
	}
	return ErrValue
}

var literalErr = [...]Code{Null: ErrNull, True: ErrTrue, False: ErrFalse}

// literal matches the constant named by tag.
func (p *parser) literal(tag Tag) error {
	text := tagStr[tag]
	for i := 1; i < len(text); i++ {
		if p.read() != int(text[i]) {
			return literalErr[tag]
		}
	}
	if c := p.read(); c >= 0 && !isSpace(c) && !isDelim(c) {
		return literalErr[tag]
	}
	if _, err := p.emit(tag, 0); err != nil {
		return err
	}
	p.trim()
	return nil
}

func (p *parser) number() error {
	buf := p.scratch[:0]
	for isNumChar(p.c) {
		if len(buf) == p.maxNumber {
			return ErrNumberTooLong
		}
		buf = append(buf, byte(p.c))
		p.read()
	}
	p.scratch = buf

	// Underflow is rounded to zero, but an overflow cannot be rendered.
	f, err := strconv.ParseFloat(string(buf), 64)
	if err != nil && (!errors.Is(err, strconv.ErrRange) || math.IsInf(f, 0)) {
		return ErrNumber
	}
	out, err := p.emit(Number, numberWords)
	if err != nil {
		return err
	}
	bits := math.Float64bits(f)
	out[0], out[1] = Word(bits), Word(bits>>32)
	p.trim()
	return nil
}

// string stores the raw text between the quotes. Escape sequences are
// checked but not decoded.
func (p *parser) string() error {
	buf := p.scratch[:0]
	for {
		c := p.read()
		if c == '"' {
			break
		}
		switch {
		case c < 0:
			return ErrUnterminatedString
		case c < ' ':
			return ErrString
		case c == '\\':
			var err error
			if buf, err = p.escape(append(buf, '\\')); err != nil {
				return err
			}
		default:
			buf = append(buf, byte(c))
		}
	}
	p.scratch = buf

	out, err := p.emit(String, alignWords(len(buf)+1))
	if err != nil {
		return err
	}
	raw := wordBytes(out)
	n := copy(raw, buf)
	clear(raw[n:]) // terminator and padding
	p.skipSpace()
	return nil
}

// escape reads the remainder of an escape sequence whose backslash has been
// added to buf.
func (p *parser) escape(buf []byte) ([]byte, error) {
	switch c := p.read(); c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return append(buf, byte(c)), nil
	case 'u':
		buf = append(buf, 'u')
		for range 4 {
			if !isHexDigit(p.read()) {
				return buf, p.stringErr()
			}
			buf = append(buf, byte(p.c))
		}
		return buf, nil
	}
	return buf, p.stringErr()
}

func (p *parser) stringErr() error {
	if p.c < 0 {
		return ErrUnterminatedString
	}
	return ErrString
}

func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return ErrDepth
	}
	return nil
}

func (p *parser) array() error {
	if err := p.enter(); err != nil {
		return err
	}
	out, err := p.emit(Array, 1)
	if err != nil {
		return err
	}
	out[0] = 0
	ilen := len(p.w.buf) - 1 // the count, which may move as the buffer grows

	if p.skipSpace() != ']' {
		for {
			p.w.buf[ilen]++
			if err := p.value(); err != nil {
				return err
			}
			if p.c != ',' {
				break
			}
			if p.skipSpace() == ']' {
				return ErrClosedBracket // trailing comma
			}
		}
		if p.c != ']' {
			return ErrClosedBracket
		}
	}
	p.depth--
	p.skipSpace()
	return nil
}

func (p *parser) object() error {
	if err := p.enter(); err != nil {
		return err
	}
	out, err := p.emit(Object, 1)
	if err != nil {
		return err
	}
	out[0] = 0
	ilen := len(p.w.buf) - 1

	if p.skipSpace() != '}' {
		for {
			p.w.buf[ilen]++
			if err := p.key(); err != nil {
				return err
			}
			if p.c != ':' {
				return ErrColon
			}
			p.skipSpace()
			if err := p.value(); err != nil {
				return err
			}
			if p.c == '}' {
				break
			} else if p.c != ',' {
				return ErrComma
			}
			p.skipSpace()
		}
	}
	p.depth--
	p.skipSpace()
	return nil
}

func (p *parser) key() error {
	if p.c != '"' && !p.anyKeys {
		return ErrKey
	}
	return p.value()
}

func isSpace(c int) bool { return c == ' ' || c == '\r' || c == '\n' || c == '\t' }
func isDigit(c int) bool { return '0' <= c && c <= '9' }

// isDelim reports whether c may directly follow a constant.
func isDelim(c int) bool { return c == ']' || c == '}' || c == ',' || c == ':' }

func isNumChar(c int) bool {
	return isDigit(c) || c == '.' || c == '+' || c == '-' || c == 'e' || c == 'E'
}

func isHexDigit(c int) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
