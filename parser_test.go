// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/creachadair/jstream"
	"github.com/google/go-cmp/cmp"
)

func parseString(input string) (jstream.Buffer, int, error) {
	return jstream.Parse(jstream.NewReaderSource(strings.NewReader(input)))
}

func mustParse(t *testing.T, input string) jstream.Buffer {
	t.Helper()
	buf, _, err := parseString(input)
	if err != nil {
		t.Fatalf("Parse %q: unexpected error: %v", input, err)
	}
	return buf
}

// strWords returns the payload words of a string with the given raw text.
func strWords(s string) []jstream.Word {
	raw := make([]byte, (len(s)+4)/4*4)
	copy(raw, s)
	var out []jstream.Word
	for i := 0; i < len(raw); i += 4 {
		out = append(out, binary.NativeEndian.Uint32(raw[i:]))
	}
	return out
}

// numWords returns the encoding of the number f.
func numWords(f float64) []jstream.Word {
	bits := math.Float64bits(f)
	return []jstream.Word{jstream.Word(jstream.Number), jstream.Word(bits), jstream.Word(bits >> 32)}
}

func words(parts ...any) jstream.Buffer {
	var out jstream.Buffer
	for _, p := range parts {
		switch t := p.(type) {
		case jstream.Tag:
			out = append(out, jstream.Word(t))
		case int:
			out = append(out, jstream.Word(t))
		case []jstream.Word:
			out = append(out, t...)
		default:
			panic("invalid part")
		}
	}
	return out
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		input string
		want  jstream.Buffer
	}{
		{"null", words(jstream.Null)},
		{"true", words(jstream.True)},
		{"false", words(jstream.False)},
		{"0", words(numWords(0))},
		{"-0.5e10", words(numWords(-5e9))},
		{`""`, words(jstream.String, strWords(""))},
		{`"abc"`, words(jstream.String, strWords("abc"))},
		{`"abcd"`, words(jstream.String, strWords("abcd"))},
		{`"a\nb"`, words(jstream.String, strWords(`a\nb`))},
		{"[]", words(jstream.Array, 0)},
		{"{}", words(jstream.Object, 0)},
		{"[1,2,3]", words(jstream.Array, 3, numWords(1), numWords(2), numWords(3))},
		{`{"a":1,"b":2}`, words(jstream.Object, 2,
			jstream.String, strWords("a"), numWords(1),
			jstream.String, strWords("b"), numWords(2),
		)},
		{`[[],{"":null}]`, words(jstream.Array, 2,
			jstream.Array, 0,
			jstream.Object, 1, jstream.String, strWords(""), jstream.Null,
		)},
	}
	for _, tc := range tests {
		got := mustParse(t, tc.input)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Parse %#q: (-want, +got)\n%s", tc.input, diff)
		}
		if len(tc.input) > 0 && cap(got) != len(got) {
			t.Errorf("Parse %#q: buffer has %d spare words", tc.input, cap(got)-len(got))
		}
	}
}

func TestParseValid(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"null", "null"},
		{"  true\n", "true"},
		{"\t false ", "false"},
		{"0", "0"},
		{"-0", "-0"},
		{"15", "15"},
		{"-0.5e10", "-5000000000"},
		{"2.5E-3", "0.0025"},
		{"1e21", "1e+21"},
		{"123456789012345678", "123456789012345680"},
		{"0.1", "0.1"},
		{"1e-400", "0"},
		{`""`, `""`},
		{`"a b c"`, `"a b c"`},
		{`"a\"b\\c\/A\t"`, `"a\"b\\c\/A\t"`},
		{"\"caf\xc3\xa9\"", "\"caf\xc3\xa9\""},
		{"[ ]", "[]"},
		{"[1, [2, [3]], {}]", "[1,[2,[3]],{}]"},
		{`{ "a" : [ ], "b":{"c" :null} }`, `{"a":[],"b":{"c":null}}`},
		{`{"a":1,"a":2}`, `{"a":1,"a":2}`},
		{"[true,false,null]", "[true,false,null]"},
		{`["x"]`, `["x"]`},
	}
	for _, tc := range tests {
		buf, last, err := parseString(tc.input)
		if err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", tc.input, err)
			continue
		}
		if last != jstream.EOF {
			t.Errorf("Parse %#q: last is %q, want EOF", tc.input, rune(last))
		}
		if got := buf.JSON(); got != tc.want {
			t.Errorf("Parse %#q: got %#q, want %#q", tc.input, got, tc.want)
		}
		if end, err := buf.Skip(0); err != nil || end != len(buf) {
			t.Errorf("Skip %#q: got (%d, %v), want (%d, nil)", tc.input, end, err, len(buf))
		}
	}
}

func TestParseLast(t *testing.T) {
	tests := []struct {
		input string
		json  string
		last  int
	}{
		{"true,", "true", ','},
		{"null]", "null", ']'},
		{"false  :", "false", ':'},
		{"12 x", "12", 'x'},
		{`"a"b`, `"a"`, 'b'},
		{`"a" "b"`, `"a"`, '"'},
		{"[1] \n 2", "[1]", '2'},
		{"{}{}", "{}", '{'},
		{"-3}", "-3", '}'},
	}
	for _, tc := range tests {
		buf, last, err := parseString(tc.input)
		if err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", tc.input, err)
			continue
		}
		if got := buf.JSON(); got != tc.json {
			t.Errorf("Parse %#q: got %#q, want %#q", tc.input, got, tc.json)
		}
		if last != tc.last {
			t.Errorf("Parse %#q: last is %q, want %q", tc.input, rune(last), rune(tc.last))
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  jstream.Code
		last  int
	}{
		{"", jstream.ErrValue, jstream.EOF},
		{"   ", jstream.ErrValue, jstream.EOF},
		{"x", jstream.ErrValue, 'x'},
		{"]", jstream.ErrValue, ']'},
		{"+1", jstream.ErrValue, '+'},

		{"nul", jstream.ErrNull, jstream.EOF},
		{"nulL", jstream.ErrNull, 'L'},
		{"nullx", jstream.ErrNull, 'x'},
		{"tru", jstream.ErrTrue, jstream.EOF},
		{"trUe", jstream.ErrTrue, 'U'},
		{"fals", jstream.ErrFalse, jstream.EOF},
		{"falsey", jstream.ErrFalse, 'y'},

		{"-", jstream.ErrNumber, jstream.EOF},
		{"1.2.3", jstream.ErrNumber, jstream.EOF},
		{"1e", jstream.ErrNumber, jstream.EOF},
		{"1e999", jstream.ErrNumber, jstream.EOF},
		{"-1e999 ", jstream.ErrNumber, ' '},

		{`"abc`, jstream.ErrUnterminatedString, jstream.EOF},
		{`"abc\`, jstream.ErrUnterminatedString, jstream.EOF},
		{`"\u12`, jstream.ErrUnterminatedString, jstream.EOF},
		{"\"a\x01b\"", jstream.ErrString, 1},
		{"\"a\nb\"", jstream.ErrString, '\n'},
		{`"\q"`, jstream.ErrString, 'q'},
		{`"\u12G4"`, jstream.ErrString, 'G'},

		{`{"a" 1}`, jstream.ErrColon, '1'},
		{`{"a"}`, jstream.ErrColon, '}'},
		{`{"a":1 "b":2}`, jstream.ErrComma, '"'},
		{`{"a":1]`, jstream.ErrComma, ']'},
		{`{"a":}`, jstream.ErrValue, '}'},
		{`{"a":1,}`, jstream.ErrKey, '}'},
		{`{1:2}`, jstream.ErrKey, '1'},
		{`{`, jstream.ErrKey, jstream.EOF},

		{"[", jstream.ErrValue, jstream.EOF},
		{"[1", jstream.ErrClosedBracket, jstream.EOF},
		{"[1 2]", jstream.ErrClosedBracket, '2'},
		{"[1,2,]", jstream.ErrClosedBracket, ']'},
		{"[1}", jstream.ErrClosedBracket, '}'},
		{"[,]", jstream.ErrValue, ','},
		{`[{"a":[1,}]]`, jstream.ErrValue, '}'},
	}
	for _, tc := range tests {
		buf, last, err := parseString(tc.input)
		if err == nil {
			t.Errorf("Parse %#q: got %v, want error", tc.input, buf.JSON())
			continue
		}
		if buf != nil {
			t.Errorf("Parse %#q: got non-nil buffer on error: %v", tc.input, buf)
		}
		var perr *jstream.ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse %#q: error has type %T, want *ParseError", tc.input, err)
			continue
		}
		if !errors.Is(err, tc.code) {
			t.Errorf("Parse %#q: got code %v, want %v", tc.input, perr.Code, tc.code)
		}
		if perr.Last != tc.last || last != tc.last {
			t.Errorf("Parse %#q: last is %d/%d, want %d", tc.input, perr.Last, last, tc.last)
		}
		t.Logf("Parse %#q: %v", tc.input, err)
	}
}

func TestErrorLocation(t *testing.T) {
	_, _, err := parseString("{\n  \"a\": 1,\n  \"b\" 2\n}")
	var perr *jstream.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse: got %v, want *ParseError", err)
	}
	want := jstream.LineCol{Line: 3, Column: 6}
	if perr.Location != want {
		t.Errorf("Location: got %v, want %v", perr.Location, want)
	}
	if perr.Offset != 19 {
		t.Errorf("Offset: got %d, want 19", perr.Offset)
	}
	if got := err.Error(); !strings.Contains(got, `near '2'`) {
		t.Errorf("Error: got %q, want mention of the last character", got)
	}
}

func TestNumberLength(t *testing.T) {
	long := strings.Repeat("1", jstream.DefaultMaxNumberLen)
	if _, _, err := parseString(long); err != nil {
		t.Errorf("Parse %d digits: unexpected error: %v", len(long), err)
	}
	if _, _, err := parseString("[" + long + "1]"); !errors.Is(err, jstream.ErrNumberTooLong) {
		t.Errorf("Parse %d digits: got %v, want %v", len(long)+1, err, jstream.ErrNumberTooLong)
	}

	var p jstream.Parser
	p.SetMaxNumberLen(3)
	if _, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader("-1.5"))); !errors.Is(err, jstream.ErrNumberTooLong) {
		t.Errorf("Parse with limit 3: got %v, want %v", err, jstream.ErrNumberTooLong)
	}
	if _, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader("1.5"))); err != nil {
		t.Errorf("Parse with limit 3: unexpected error: %v", err)
	}
}

func TestDepth(t *testing.T) {
	nest := func(n int) string { return strings.Repeat("[", n) + strings.Repeat("]", n) }

	var p jstream.Parser
	p.SetMaxDepth(3)
	parse := func(s string) error {
		_, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader(s)))
		return err
	}
	if err := parse(nest(3)); err != nil {
		t.Errorf("Depth 3: unexpected error: %v", err)
	}
	if err := parse(nest(4)); !errors.Is(err, jstream.ErrDepth) {
		t.Errorf("Depth 4: got %v, want %v", err, jstream.ErrDepth)
	}
	if err := parse(`[{"a":[{}]}]`); !errors.Is(err, jstream.ErrDepth) {
		t.Errorf("Mixed depth 4: got %v, want %v", err, jstream.ErrDepth)
	}

	// Sequential containers do not accumulate depth.
	if err := parse("[[[]],[[]],[[]]]"); err != nil {
		t.Errorf("Siblings: unexpected error: %v", err)
	}

	// The default limit admits reasonably deep values, and can be removed.
	if _, _, err := parseString(nest(1000)); err != nil {
		t.Errorf("Depth 1000: unexpected error: %v", err)
	}
	if _, _, err := parseString(nest(jstream.DefaultMaxDepth + 1)); !errors.Is(err, jstream.ErrDepth) {
		t.Errorf("Default depth: got %v, want %v", err, jstream.ErrDepth)
	}
	p.SetMaxDepth(0)
	if err := parse(nest(jstream.DefaultMaxDepth + 1)); err != nil {
		t.Errorf("Unlimited depth: unexpected error: %v", err)
	}
}

func TestAnyKeys(t *testing.T) {
	const input = `{1:2, null:[true], "s":{}, [3]:{"x":0}}`
	if _, _, err := parseString(input); !errors.Is(err, jstream.ErrKey) {
		t.Fatalf("Parse: got %v, want %v", err, jstream.ErrKey)
	}

	var p jstream.Parser
	p.AllowAnyKeys(true)
	buf, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if got, want := buf.JSON(), `{1:2,null:[true],"s":{},[3]:{"x":0}}`; got != want {
		t.Errorf("JSON: got %#q, want %#q", got, want)
	}
	if got := buf.Len(0); got != 4 {
		t.Errorf("Len: got %d, want 4", got)
	}
}

// trackingAllocator is an Allocator that fails after a fixed number of words
// and tracks the words that have not been released.
type trackingAllocator struct {
	max  int
	live int
}

func (a *trackingAllocator) Grow(buf jstream.Buffer, n int) (jstream.Buffer, error) {
	if len(buf)+n > a.max {
		return buf, errors.New("allocation failed")
	}
	nb := make(jstream.Buffer, len(buf)+n)
	for i := range nb {
		nb[i] = 0xdeadbeef // not zeroed
	}
	copy(nb, buf)
	a.live += n
	return nb, nil
}

func (a *trackingAllocator) Release(buf jstream.Buffer) { a.live -= len(buf) }

func TestOutOfMemory(t *testing.T) {
	const input = `{"a":[1,{"b":"xyz"},[null,true,"long enough to span words"]],"c":false}`
	full := mustParse(t, input)

	for k := range len(full) {
		a := &trackingAllocator{max: k}
		var p jstream.Parser
		p.SetAllocator(a)
		buf, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader(input)))
		if !errors.Is(err, jstream.ErrMemory) {
			t.Errorf("Limit %d: got %v, want %v", k, err, jstream.ErrMemory)
		}
		if buf != nil {
			t.Errorf("Limit %d: got non-nil buffer %v", k, buf)
		}
		if a.live != 0 {
			t.Errorf("Limit %d: %d words not released", k, a.live)
		}
	}

	// With exactly enough space, the result matches the default allocator,
	// even though the storage was not zeroed.
	a := &trackingAllocator{max: len(full)}
	var p jstream.Parser
	p.SetAllocator(a)
	buf, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if diff := cmp.Diff(full, buf); diff != "" {
		t.Errorf("Buffer (-want, +got):\n%s", diff)
	}
	if a.live != len(buf) {
		t.Errorf("Live words: got %d, want %d", a.live, len(buf))
	}
	p.Release(buf)
	if a.live != 0 {
		t.Errorf("After release: %d words live", a.live)
	}
}

func TestLimitAllocator(t *testing.T) {
	var p jstream.Parser
	p.SetAllocator(jstream.LimitAllocator{Max: 5})

	buf, _, err := p.Parse(jstream.NewReaderSource(strings.NewReader("[1]")))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if len(buf) != 5 {
		t.Errorf("Buffer length: got %d, want 5", len(buf))
	}

	_, _, err = p.Parse(jstream.NewReaderSource(strings.NewReader("[1,2]")))
	if !errors.Is(err, jstream.ErrMemory) {
		t.Errorf("Parse: got %v, want %v", err, jstream.ErrMemory)
	} else if !strings.Contains(err.Error(), "limit of 5 words") {
		t.Errorf("Parse: error %q does not mention the limit", err)
	}
}

func TestSourceError(t *testing.T) {
	errBoom := errors.New("boom")
	src := jstream.NewReaderSource(io.MultiReader(
		strings.NewReader(`[1, "two",`),
		iotest.ErrReader(errBoom),
	))
	_, last, err := jstream.Parse(src)
	if !errors.Is(err, jstream.ErrValue) {
		t.Errorf("Parse: got %v, want %v", err, jstream.ErrValue)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("Parse: got %v, want %v", err, errBoom)
	}
	if last != jstream.EOF {
		t.Errorf("Last: got %d, want EOF", last)
	}
	if src.Err() != errBoom {
		t.Errorf("Source error: got %v, want %v", src.Err(), errBoom)
	}
}

func TestSourceFunc(t *testing.T) {
	const input = `{"ok":true}`
	i := 0
	src := jstream.SourceFunc(func() int {
		if i >= len(input) {
			return -5 // any negative value ends input
		}
		i++
		return int(input[i-1])
	})
	buf, last, err := jstream.Parse(src)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if last != jstream.EOF {
		t.Errorf("Last: got %d, want EOF", last)
	}
	if got := buf.JSON(); got != input {
		t.Errorf("JSON: got %#q, want %#q", got, input)
	}
}
