// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package cursor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
ParsePath grammar, a sequential subset of JSONPath:

  expr = "$" [steps]
 steps = step [steps]
  step = "." WORD
  step = "[" INDEX "]"
  step = "[" "'" QTEXT "'" "]"

  WORD = RE `\w+`
 QTEXT = RE `[^']*`
 INDEX = RE `-?\d+`
*/

// ParsePath parses s as a path expression and returns the equivalent path
// elements for Cursor.Down: names become strings and indices become ints.
func ParsePath(s string) ([]any, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var path []any
	for t != "" {
		elt, rest, err := parseStep(t)
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", t, err)
		}
		path = append(path, elt)
		t = rest
	}
	return path, nil
}

// FormatPath renders path elements as a path expression, the inverse of
// ParsePath. Elements other than strings and ints are rendered as "[?]".
func FormatPath(path []any) string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, elt := range path {
		switch t := elt.(type) {
		case string:
			if wordRE.MatchString(t) && len(wordRE.FindString(t)) == len(t) {
				fmt.Fprintf(&buf, ".%s", t)
			} else {
				fmt.Fprintf(&buf, "['%s']", t)
			}
		case int:
			fmt.Fprintf(&buf, "[%d]", t)
		default:
			buf.WriteString("[?]")
		}
	}
	return buf.String()
}

func parseStep(s string) (_ any, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "."); ok {
		if m := wordRE.FindString(t); m != "" {
			return m, t[len(m):], nil
		}
		return nil, s, errors.New("invalid .name")
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		var elt any
		if m := quoteRE.FindStringSubmatch(t); m != nil {
			elt, t = m[1], t[len(m[0]):]
		} else if m := indexRE.FindString(t); m != "" {
			v, err := strconv.Atoi(m)
			if err != nil {
				return nil, s, fmt.Errorf("invalid index: %w", err)
			}
			elt, t = v, t[len(m):]
		} else {
			return nil, s, errors.New("invalid subscript")
		}
		u, ok := strings.CutPrefix(t, "]")
		if !ok {
			return nil, t, errors.New("missing close bracket")
		}
		return elt, u, nil
	}
	return nil, s, errors.New("invalid path step")
}

var (
	wordRE  = regexp.MustCompile(`^\w+`)
	indexRE = regexp.MustCompile(`^-?\d+`)
	quoteRE = regexp.MustCompile(`^'([^']*)'`)
)
