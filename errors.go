// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
)

// Code identifies the reason a parse failed. A Code is itself an error, so
// errors.Is can be used to check for a particular failure:
//
//	if errors.Is(err, jstream.ErrClosedBracket) { ... }
type Code int

// Constants defining the error codes reported by the parser.
const (
	ErrMemory             Code = iota + 1 // buffer growth failed
	ErrValue                              // unrecognized value start character
	ErrNull                               // malformed null
	ErrFalse                              // malformed false
	ErrTrue                               // malformed true
	ErrNumber                             // malformed numeral
	ErrNumberTooLong                      // numeral exceeds the length bound
	ErrUnterminatedString                 // end of input inside a string
	ErrComma                              // missing "," between object members
	ErrColon                              // missing ":" after an object key
	ErrClosedBracket                      // missing "," or "]" in an array
	ErrString                             // control byte or invalid escape in a string
	ErrKey                                // object key is not a string
	ErrDepth                              // nesting exceeds the depth limit
)

var codeStr = [...]string{
	ErrMemory:             "out of memory",
	ErrValue:              "invalid value",
	ErrNull:               "invalid null",
	ErrFalse:              "invalid false",
	ErrTrue:               "invalid true",
	ErrNumber:             "invalid number",
	ErrNumberTooLong:      "number too long",
	ErrUnterminatedString: "end of input inside string",
	ErrComma:              `expected ","`,
	ErrColon:              `expected ":"`,
	ErrClosedBracket:      `expected "," or "]"`,
	ErrString:             "invalid character in string",
	ErrKey:                "object key is not a string",
	ErrDepth:              "nesting too deep",
}

// Error satisfies the error interface.
func (c Code) Error() string {
	if c <= 0 || int(c) >= len(codeStr) {
		return fmt.Sprintf("unknown error %d", int(c))
	}
	return codeStr[c]
}

// ParseError is the concrete type of errors reported by the parser.
type ParseError struct {
	Code     Code    // the reason for the failure
	Last     int     // the last character read, or EOF
	Offset   int     // the number of input characters consumed
	Location LineCol // the location of the last character read

	err error // an underlying source or allocator error, if any
}

// Error satisfies the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("at %s (offset %d) %s: %v", e.Location, e.Offset, lastLabel(e.Last), e.Code)
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap supports error wrapping. The result includes the Code.
func (e *ParseError) Unwrap() []error {
	if e.err != nil {
		return []error{e.Code, e.err}
	}
	return []error{e.Code}
}

func lastLabel(c int) string {
	switch {
	case c < 0:
		return "near end of input"
	case c < ' ' || c > '~':
		return fmt.Sprintf("near %#x", c)
	default:
		return fmt.Sprintf("near %q", rune(c))
	}
}

// DecodeError is the concrete type of errors reported when walking a Buffer
// that is not a valid encoding.
type DecodeError struct {
	Pos     int  // the word offset of the problem
	Tag     Word // the word found at Pos, if any
	Message string
}

// Error satisfies the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("at word %d: %s", e.Pos, e.Message)
}

// codeOf reports the Code carried by err, or ErrMemory if err does not carry
// one. Only allocator failures reach the parser without a code.
func codeOf(err error) Code {
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return ErrMemory
}
