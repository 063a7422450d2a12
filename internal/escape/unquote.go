// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents, and a \u
// surrogate pair is combined into a single rune. Invalid escapes are replaced
// by the Unicode replacement rune. Unquote reports an error for an incomplete
// escape sequence. Bytes outside escapes are copied without interpretation.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dec = mem.Append(dec, src)
		return dec, nil
	}

	putByte := func(bs ...byte) { dec = append(dec, bs...) }
	putRune := func(r rune) { dec = utf8.AppendRune(dec, r) }
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))

		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		b := src.At(0)
		src = src.SliceFrom(1)
		switch b {
		case '"', '\\', '/':
			putByte(b)
		case 'b':
			putByte('\b')
		case 'f':
			putByte('\f')
		case 'n':
			putByte('\n')
		case 'r':
			putByte('\r')
		case 't':
			putByte('\t')
		case 'u':
			r, rest, err := parseU16(src)
			if err != nil {
				return nil, err
			}
			src = rest
			if utf16.IsSurrogate(r) {
				// A high surrogate may be followed by its low half.
				if src.Len() >= 6 && src.At(0) == '\\' && src.At(1) == 'u' {
					if lo, tail, err := parseU16(src.SliceFrom(2)); err == nil {
						if c := utf16.DecodeRune(r, lo); c != utf8.RuneError {
							putRune(c)
							src = tail
							break
						}
					}
				}
				putRune(utf8.RuneError)
				break
			}
			putRune(r)
		default:
			putRune(utf8.RuneError)
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

// parseU16 decodes the four hex digits of a \u escape from the front of src.
// An invalid digit yields the replacement rune.
func parseU16(src mem.RO) (rune, mem.RO, error) {
	if src.Len() < 4 {
		return 0, src, errors.New("incomplete Unicode escape")
	}
	v, err := parseHex(src.SliceTo(4))
	if err != nil {
		return utf8.RuneError, src.SliceFrom(4), nil
	}
	return rune(v), src.SliceFrom(4), nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
