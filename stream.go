// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "io"

// Stream parses a sequence of JSON values from a single Source. Each value
// is delivered as a separate Buffer. Values may be separated by whitespace,
// and values whose extent is self-evident (strings, arrays and objects) need
// no separator at all.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	st      *parser
	started bool
	err     error // sticky
}

// NewStream constructs a Stream that consumes input from src using default
// parser settings.
func NewStream(src Source) *Stream { return new(Parser).NewStream(src) }

// NewStream constructs a Stream that consumes input from src using the
// settings of p. Later changes to p do not affect the stream.
func (p *Parser) NewStream(src Source) *Stream { return &Stream{st: p.newState(src)} }

// ParseOne parses the next value from the stream. If no further value is
// available, ParseOne returns io.EOF. In case of a parse error, the error has
// concrete type [*ParseError], and all subsequent calls report the same error.
func (s *Stream) ParseOne() (Buffer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.started {
		s.st.skipSpace()
		s.started = true
	}
	if s.st.c < 0 {
		if es, ok := s.st.src.(errSource); ok && es.Err() != nil {
			s.err = s.st.fail(ErrValue)
		} else {
			s.err = io.EOF
		}
		return nil, s.err
	}
	buf, _, err := s.st.parse()
	if err != nil {
		s.err = err
		return nil, err
	}
	return buf, nil
}

// Parse parses values from the stream and calls f for each in order, until
// the input is exhausted or an error occurs. Parse returns nil if the input
// was fully consumed without error. If f reports an error, parsing stops and
// that error is returned.
func (s *Stream) Parse(f func(Buffer) error) error {
	for {
		buf, err := s.ParseOne()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := f(buf); err != nil {
			return err
		}
	}
}

// Last returns the first character following the most recent value, or EOF.
func (s *Stream) Last() int { return s.st.c }

// Offset returns the number of input characters consumed so far.
func (s *Stream) Offset() int { return s.st.off }

// Err reports the error that stopped the stream, or nil. It returns nil if
// the stream ended normally.
func (s *Stream) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
