// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"

	"github.com/creachadair/jstream/internal/escape"

	"go4.org/mem"
)

// The accessors in this file panic if pos is not the position of a complete
// value of the expected type in b.

// Tag returns the tag of the value at pos.
func (b Buffer) Tag(pos int) Tag {
	tag, err := b.tagAt(pos)
	if err != nil {
		panic(err)
	}
	return tag
}

// Float64 returns the value of the number at pos.
func (b Buffer) Float64(pos int) float64 {
	b.mustBe(pos, Number)
	if _, err := b.extent(pos, 1+numberWords); err != nil {
		panic(err)
	}
	return b.float64At(pos)
}

// Bool returns the value of the true or false constant at pos.
func (b Buffer) Bool(pos int) bool {
	switch tag := b.Tag(pos); tag {
	case True:
		return true
	case False:
		return false
	default:
		panic(fmt.Sprintf("value at %d is %v, not a Boolean", pos, tag))
	}
}

// Len returns the number of elements of the array at pos, or the number of
// members of the object at pos.
func (b Buffer) Len(pos int) int {
	if tag := b.Tag(pos); tag != Array && tag != Object {
		panic(fmt.Sprintf("value at %d is %v, not an array or object", pos, tag))
	}
	n, err := b.countAt(pos)
	if err != nil {
		panic(err)
	}
	return n
}

// Text returns a read-only view of the raw text of the string at pos, without
// the enclosing quotes. Escape sequences are not decoded. The view shares
// storage with b.
func (b Buffer) Text(pos int) mem.RO {
	b.mustBe(pos, String)
	raw, _, err := b.stringAt(pos)
	if err != nil {
		panic(err)
	}
	return mem.B(raw)
}

// Unquote returns the contents of the string at pos with its escape sequences
// decoded. It reports an error for an incomplete escape sequence.
func (b Buffer) Unquote(pos int) ([]byte, error) { return escape.Unquote(b.Text(pos)) }

func (b Buffer) mustBe(pos int, want Tag) {
	if tag := b.Tag(pos); tag != want {
		panic(fmt.Sprintf("value at %d is %v, not %v", pos, tag, want))
	}
}
