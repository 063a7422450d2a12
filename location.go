// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// advance updates lc to account for having consumed c.
func (lc *LineCol) advance(c int) {
	if c == '\n' {
		lc.Line++
		lc.Column = 0
	} else {
		lc.Column++
	}
}
