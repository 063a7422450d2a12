// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Skip returns the position of the word following the value at pos, without
// decoding or rendering anything. The cost of Skip is proportional to the
// encoded size of the value at pos.
//
// If b is not a valid encoding at pos, Skip returns -1 and an error of
// concrete type [*DecodeError].
func (b Buffer) Skip(pos int) (int, error) {
	tag, err := b.tagAt(pos)
	if err != nil {
		return -1, err
	}
	switch tag {
	case Null, True, False:
		return pos + 1, nil
	case Number:
		return b.extent(pos, 1+numberWords)
	case String:
		_, next, err := b.stringAt(pos)
		return next, err
	}

	n, err := b.countAt(pos)
	if err != nil {
		return -1, err
	}
	if tag == Object {
		n *= 2 // each member is a key and a value
	}
	next := pos + 2
	for range n {
		next, err = b.Skip(next)
		if err != nil {
			return -1, err
		}
	}
	return next, nil
}

// Render writes the JSON text of the value at pos to w, and returns the
// position of the word following that value. The text has no whitespace
// between tokens, and strings are written as they appeared in the source.
//
// If b is not a valid encoding at pos, Render returns -1 and an error of
// concrete type [*DecodeError]; output written before the problem was found
// is not retracted. If writing to w fails, Render returns that error.
// If w is a *bufio.Writer, Render does not flush it.
func (b Buffer) Render(w io.Writer, pos int) (int, error) {
	bw, ok := w.(*bufio.Writer)
	if ok {
		return b.render(bw, pos)
	}
	bw = bufio.NewWriter(w)
	next, err := b.render(bw, pos)
	if ferr := bw.Flush(); err == nil && ferr != nil {
		return -1, ferr
	}
	return next, err
}

// JSON returns the JSON text of the whole of b. If b is not a valid
// encoding, JSON returns an empty string.
func (b Buffer) JSON() string {
	var sb strings.Builder
	if _, err := b.Render(&sb, 0); err != nil {
		return ""
	}
	return sb.String()
}

func (b Buffer) render(w *bufio.Writer, pos int) (int, error) {
	tag, err := b.tagAt(pos)
	if err != nil {
		return -1, err
	}
	switch tag {
	case Null, True, False:
		w.WriteString(tagStr[tag])
		return pos + 1, nil

	case Number:
		next, err := b.extent(pos, 1+numberWords)
		if err != nil {
			return -1, err
		}
		w.Write(appendNumber(w.AvailableBuffer(), b.float64At(pos)))
		return next, nil

	case String:
		raw, next, err := b.stringAt(pos)
		if err != nil {
			return -1, err
		}
		w.WriteByte('"')
		w.Write(raw)
		w.WriteByte('"')
		return next, nil
	}

	n, err := b.countAt(pos)
	if err != nil {
		return -1, err
	}
	lb, rb := byte('['), byte(']')
	if tag == Object {
		lb, rb = '{', '}'
	}
	w.WriteByte(lb)
	next := pos + 2
	for i := range n {
		if i > 0 {
			w.WriteByte(',')
		}
		if tag == Object {
			if next, err = b.render(w, next); err != nil {
				return -1, err
			}
			w.WriteByte(':')
		}
		if next, err = b.render(w, next); err != nil {
			return -1, err
		}
	}
	w.WriteByte(rb)
	return next, nil
}

// appendNumber appends the shortest text of f that parses back to f.
// Integral values below 1e21 are written without an exponent.
func appendNumber(buf []byte, f float64) []byte {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.AppendFloat(buf, f, 'f', -1, 64)
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 64)
}

// tagAt returns the valid tag at pos, or reports an error.
func (b Buffer) tagAt(pos int) (Tag, error) {
	if pos < 0 || pos >= len(b) {
		return 0, &DecodeError{Pos: pos, Message: fmt.Sprintf("position out of range (n=%d)", len(b))}
	}
	tag := Tag(b[pos])
	if !tag.valid() {
		return 0, &DecodeError{Pos: pos, Tag: b[pos], Message: fmt.Sprintf("invalid tag %d", b[pos])}
	}
	return tag, nil
}

// extent returns the end of a value at pos occupying n words, or reports an
// error if the buffer is too short.
func (b Buffer) extent(pos, n int) (int, error) {
	if end := pos + n; end <= len(b) {
		return end, nil
	}
	return -1, &DecodeError{Pos: pos, Tag: b[pos], Message: fmt.Sprintf("truncated %v", Tag(b[pos]))}
}

// countAt returns the element count of the array or object at pos.
func (b Buffer) countAt(pos int) (int, error) {
	if _, err := b.extent(pos, 2); err != nil {
		return 0, err
	}
	return int(b[pos+1]), nil
}

// stringAt returns the raw bytes of the string at pos, and the position
// following it.
func (b Buffer) stringAt(pos int) ([]byte, int, error) {
	raw := wordBytes(b[pos+1:])
	i := bytes.IndexByte(raw, 0)
	if i < 0 {
		return nil, -1, &DecodeError{Pos: pos, Tag: b[pos], Message: "unterminated string"}
	}
	return raw[:i], pos + 1 + alignWords(i+1), nil
}

// float64At returns the payload of the number at pos, which must be complete.
func (b Buffer) float64At(pos int) float64 {
	return math.Float64frombits(uint64(b[pos+1]) | uint64(b[pos+2])<<32)
}
