// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"bufio"
	"io"
)

// EOF is the value returned by a Source at the end of its input, or when it
// is unable to deliver further input.
const EOF = -1

// A Source supplies input to the parser one character at a time. Get returns
// the next byte of input (0..255), or a negative value at the end of the
// input or in case of error. The parser does not distinguish the two cases.
//
// If a Source also implements an Err() error method, the parser consults it
// when input ends unexpectedly and includes any error it reports.
type Source interface {
	Get() int
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() int

// Get satisfies the Source interface.
func (f SourceFunc) Get() int { return f() }

// ReaderSource is a Source that consumes input from an io.Reader.
type ReaderSource struct {
	r   io.ByteReader
	err error
}

// NewReaderSource constructs a Source that delivers the bytes of r.
// If r does not implement io.ByteReader, it is buffered.
func NewReaderSource(r io.Reader) *ReaderSource {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ReaderSource{r: br}
}

// Get satisfies the Source interface.
func (s *ReaderSource) Get() int {
	if s.err != nil {
		return EOF
	}
	b, err := s.r.ReadByte()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return EOF
	}
	return int(b)
}

// Err reports the error that ended the input, if any. It returns nil if the
// input ended normally.
func (s *ReaderSource) Err() error { return s.err }

// errSource is the optional interface consulted for source errors.
type errSource interface{ Err() error }
