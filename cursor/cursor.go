// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package cursor implements traversal over the structure of an encoded JSON
// buffer. A cursor moves between values by following the counts in the
// encoding, skipping over values it does not need without decoding them.
package cursor

import (
	"fmt"

	"github.com/creachadair/jstream"

	"go4.org/mem"
)

// Path traverses a sequential path into the structure of buf starting at
// position 0, where path elements are as documented for the Cursor.Down
// method. This is a convenience wrapper for creating a cursor, applying path,
// and retrieving its position.
func Path(buf jstream.Buffer, path ...any) (int, error) {
	c := New(buf).Down(path...)
	if err := c.Err(); err != nil {
		return 0, err
	}
	return c.Pos(), nil
}

// A Cursor is a pointer that navigates into the structure of a buffer.
// The buffer must be a valid encoding, as produced by the parser or accepted
// by jstream.FromBytes.
type Cursor struct {
	buf jstream.Buffer
	org int
	stk []int
	err error
}

// New constructs a new Cursor to traverse the value at the start of buf.
func New(buf jstream.Buffer) *Cursor { return &Cursor{buf: buf} }

// NewAt constructs a new Cursor to traverse the value at position pos of buf.
func NewAt(buf jstream.Buffer, pos int) *Cursor { return &Cursor{buf: buf, org: pos} }

// Buffer returns the buffer traversed by c.
func (c *Cursor) Buffer() jstream.Buffer { return c.buf }

// Origin returns the origin position of c.
func (c *Cursor) Origin() int { return c.org }

// AtOrigin reports whether c is at its origin.
func (c *Cursor) AtOrigin() bool { return len(c.stk) == 0 }

// Pos reports the position of the current value under the cursor.
func (c *Cursor) Pos() int {
	if c.AtOrigin() {
		return c.org
	}
	return c.stk[len(c.stk)-1]
}

// Tag reports the tag of the current value under the cursor.
func (c *Cursor) Tag() jstream.Tag { return c.buf.Tag(c.Pos()) }

// Path reports the complete sequence of positions from the origin to the
// current location in c.
func (c *Cursor) Path() []int {
	return append([]int{c.org}, c.stk...)
}

// Err reports the error from the most recent traversal operation, if any.
func (c *Cursor) Err() error { return c.err }

// Up moves the cursor one position upward in the structure, if possible.
// It returns c to permit chaining.
func (c *Cursor) Up() *Cursor {
	if n := len(c.stk); n > 0 {
		c.stk = c.stk[:n-1]
	}
	return c
}

// Reset resets the cursor to its origin and clears its error.
func (c *Cursor) Reset() { c.stk = c.stk[:0]; c.err = nil }

// Down traverses a sequential path into the structure of c starting from the
// current value, where path elements are either strings (denoting object
// keys), integers (denoting offsets into arrays or objects), functions (see
// below), or nil. If the path cannot be completely consumed, traversal stops
// and an error is recorded. Use Err to recover the error.
//
// If a path element is a string, the current value must be an object, and
// the cursor moves to the value of the first member whose key, after
// unescaping, equals the string.
//
// If a path element is an integer, the current value must be an array or
// object, and the cursor moves to the element (or member value) at that
// index. Negative indices count backward from the end (-1 is last, -2 second
// last). An error is reported if the index is out of bounds.
//
// If a path element is a function, the function is executed and the position
// it returns becomes the next value in the sequence. The function must have
// the signature
//
//	func(jstream.Buffer, int) (int, error)
//
// If the function reports an error, traversal stops and the error is recorded.
func (c *Cursor) Down(path ...any) *Cursor {
	c.err = nil // reset error
	cur := c.Pos()
	for _, elt := range path {
		switch t := elt.(type) {
		case string:
			if tag := c.buf.Tag(cur); tag != jstream.Object {
				return c.setErrorf("cannot traverse %v with %q", tag, t)
			}
			next, ok, err := findKey(c.buf, cur, t)
			if err != nil {
				c.err = err
				return c
			} else if !ok {
				return c.setErrorf("key %q not found", t)
			}
			cur = c.push(next)

		case int:
			tag := c.buf.Tag(cur)
			if tag != jstream.Array && tag != jstream.Object {
				return c.setErrorf("cannot traverse %v with %v", tag, t)
			}
			n := c.buf.Len(cur)
			i, ok := fixArrayBound(n, t)
			if !ok {
				return c.setErrorf("%v index %d out of bounds (n=%d)", tag, t, n)
			}
			next, err := nth(c.buf, cur, i)
			if err != nil {
				c.err = err
				return c
			}
			cur = c.push(next)

		case func(jstream.Buffer, int) (int, error):
			next, err := t(c.buf, cur)
			if err != nil {
				c.err = err
				return c
			}
			cur = c.push(next)

		case nil:
			// Do nothing.

		default:
			return c.setErrorf("invalid path element %T", elt)
		}
	}
	return c
}

func (c *Cursor) push(pos int) int { c.stk = append(c.stk, pos); return pos }

func (c *Cursor) setErrorf(msg string, args ...any) *Cursor {
	c.err = fmt.Errorf(msg, args...)
	return c
}

func fixArrayBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// nth returns the position of the i'th element of the array at pos, or of the
// value of the i'th member of the object at pos.
func nth(buf jstream.Buffer, pos, i int) (int, error) {
	skip := i
	if buf.Tag(pos) == jstream.Object {
		skip = 2*i + 1 // the preceding members, and this member's key
	}
	next := pos + 2
	for range skip {
		var err error
		if next, err = buf.Skip(next); err != nil {
			return 0, err
		}
	}
	return next, nil
}

// findKey returns the position of the value of the first member of the
// object at pos whose key matches key.
func findKey(buf jstream.Buffer, pos int, key string) (int, bool, error) {
	next := pos + 2
	for range buf.Len(pos) {
		val, err := buf.Skip(next)
		if err != nil {
			return 0, false, err
		}
		if buf.Tag(next) == jstream.String && keyMatch(buf, next, key) {
			return val, true, nil
		}
		if next, err = buf.Skip(val); err != nil {
			return 0, false, err
		}
	}
	return 0, false, nil
}

// keyMatch reports whether the string at pos equals key once unescaped.
func keyMatch(buf jstream.Buffer, pos int, key string) bool {
	raw := buf.Text(pos)
	if mem.IndexByte(raw, '\\') < 0 {
		return raw.Equal(mem.S(key))
	}
	dec, err := buf.Unquote(pos)
	return err == nil && string(dec) == key
}
