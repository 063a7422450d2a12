// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

// Word is the unit of storage of an encoded Buffer.
type Word = uint32

// wordSize is the size of a Word in bytes.
const wordSize = 4

// numberWords is the number of words holding the payload of a Number.
const numberWords = 8 / wordSize

// Tag is the type of the discriminant word at the start of every encoded value.
type Tag Word

// Constants defining the valid Tag values. The numeric values are part of the
// encoding and must not be changed.
const (
	Null   Tag = iota // constant: null
	True              // constant: true
	False             // constant: false
	Number            // number, followed by a float64 payload
	String            // string, followed by NUL-terminated bytes
	Array             // array, followed by a count and that many values
	Object            // object, followed by a count and that many key/value pairs

	numTags // sentinel, not a valid tag
)

var tagStr = [...]string{
	Null:   "null",
	True:   "true",
	False:  "false",
	Number: "number",
	String: "string",
	Array:  "array",
	Object: "object",
}

func (t Tag) String() string {
	if !t.valid() {
		return "invalid tag"
	}
	return tagStr[t]
}

func (t Tag) valid() bool { return t < numTags }

// alignWords reports the number of words needed to hold n bytes.
func alignWords(n int) int { return (n + wordSize - 1) / wordSize }
