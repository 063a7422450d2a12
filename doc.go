// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jstream implements a single-pass JSON parser that encodes values
// directly into a compact binary buffer of fixed-width words, rather than
// building a tree of values.
//
// The input dialect is 7-bit ASCII JSON. Bytes outside the ASCII range are
// copied into strings verbatim and are never decoded as Unicode.
//
// # Parsing
//
// The parser consumes input one character at a time from a Source. Call
// Parse to parse a single value:
//
//	buf, last, err := jstream.Parse(jstream.NewReaderSource(input))
//	if err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//
// Leading whitespace is skipped. Because JSON has no value terminator, the
// parser must read one character beyond the end of the value. That character
// (or jstream.EOF) is returned as last; the caller decides whether anything
// may follow the value.
//
// In case of error, Parse returns an error of concrete type *ParseError
// reporting the error Code and the last character read. Use errors.Is to
// check for a particular code:
//
//	if errors.Is(err, jstream.ErrClosedBracket) { ... }
//
// To parse a sequence of values from one input, use a Stream:
//
//	s := jstream.NewStream(src)
//	for {
//	   buf, err := s.ParseOne()
//	   if err == io.EOF {
//	      break
//	   } else if err != nil {
//	      log.Fatalf("ParseOne failed: %v", err)
//	   }
//	   process(buf)
//	}
//
// # Encoding
//
// A Buffer is a sequence of words in which each value is a tag word followed
// by its payload:
//
//	Tag        | Payload
//	---------- | ------------------------------------------------------
//	Null (0)   | none
//	True (1)   | none
//	False (2)  | none
//	Number (3) | a float64 in 2 words
//	String (4) | raw bytes, NUL-terminated, padded to a whole word
//	Array (5)  | element count n, then n values
//	Object (6) | member count n, then n pairs of key and value
//
// The extent of every value follows from its own contents, so a buffer needs
// no index: Skip finds the end of a value by following the counts and
// terminators, and Render writes a value back out as JSON text. Both return
// the position following the value, so sibling values can be visited in
// sequence.
//
// Strings are stored as they appear in the source, with escape sequences
// validated but not decoded. Use Buffer.Unquote to decode a string.
//
// A Buffer contains no pointers, so it may be copied or stored as raw bytes
// (see Buffer.Bytes and FromBytes) and later walked on the same platform.
package jstream
