// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote encodes a string to escape characters for inclusion in a JSON string.
// The result is 7-bit clean: runes outside the ASCII range are written as \u
// escapes, using a surrogate pair for runes beyond the basic plane.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len())
	putByte := func(bs ...byte) { buf = append(buf, bs...) }
	putU16 := func(v rune) {
		putByte('\\', 'u',
			hexDigit[(v>>12)&15], hexDigit[(v>>8)&15], hexDigit[(v>>4)&15], hexDigit[v&15])
	}

	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)

		switch {
		case r < ' ':
			if b := controlEsc[r]; b != 0 {
				putByte('\\', b)
			} else {
				putU16(r)
			}
		case r == '\\' || r == '"':
			putByte('\\', byte(r))
		case r < utf8.RuneSelf:
			putByte(byte(r))
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			putU16(hi)
			putU16(lo)
		default:
			putU16(r)
		}
	}
	return buf
}
