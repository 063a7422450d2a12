// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Program jsondump parses JSON values into the compact word encoding and
// writes them back out, optionally with a dump of the encoded words.
//
// Usage:
//
//	jsondump [flags] [file ...]
//
// With no files, or with the file name "-", input is read from stdin.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/cursor"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tailscale/hujson"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options are the settings shared by all inputs.
type options struct {
	all    bool
	words  bool
	jwcc   bool
	path   []any
	parser *jstream.Parser
}

// run executes the program with the given arguments and returns its exit
// status: 0 on success, 1 if any input failed, 2 for usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsondump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Output options
	all := fs.Bool("all", false, "Parse every value in each input, not just one")
	words := fs.Bool("words", false, "Dump the encoded words of each value")
	pathExpr := fs.String("path", "", `Print only the value at this path (e.g. "$.a[0]")`)

	// Parser options
	jwcc := fs.Bool("jwcc", false, "Accept comments and trailing commas (JWCC) in the input")
	anyKeys := fs.Bool("any-keys", false, "Accept non-string object keys")
	maxWords := fs.Int("max-words", 0, "Maximum encoded size of a value in words (0 means no limit)")
	maxNumber := fs.Int("max-number", jstream.DefaultMaxNumberLen, "Maximum length of a numeral")
	maxDepth := fs.Int("max-depth", jstream.DefaultMaxDepth, "Maximum nesting depth (0 means no limit)")

	// Performance options
	workers := fs.Int("j", 1, "Number of inputs to process concurrently")

	// Logging options
	logLevel := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	prettyLogs := fs.Bool("pretty", false, "Enable pretty logging output")

	// Other options
	showVersion := fs.Bool("version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "jsondump version %s\n", version)
		return 0
	}
	setupLogging(*logLevel, *prettyLogs, stderr)

	opts := &options{
		all:    *all,
		words:  *words,
		jwcc:   *jwcc,
		parser: new(jstream.Parser),
	}
	if *pathExpr != "" {
		p, err := cursor.ParsePath(*pathExpr)
		if err != nil {
			log.Error().Err(err).Str("path", *pathExpr).Msg("Invalid path")
			return 2
		}
		opts.path = p
	}
	opts.parser.AllowAnyKeys(*anyKeys)
	opts.parser.SetMaxNumberLen(*maxNumber)
	opts.parser.SetMaxDepth(*maxDepth)
	if *maxWords > 0 {
		opts.parser.SetAllocator(jstream.LimitAllocator{Max: *maxWords})
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	results := make([]result, len(inputs))

	if *workers <= 1 || len(inputs) == 1 {
		for i, name := range inputs {
			results[i] = processInput(name, stdin, opts)
		}
	} else {
		pool, err := ants.NewPool(*workers)
		if err != nil {
			log.Error().Err(err).Int("workers", *workers).Msg("Failed to create worker pool")
			return 2
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i, name := range inputs {
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				results[i] = processInput(name, stdin, opts)
			}); err != nil {
				wg.Done()
				results[i] = result{name: name, err: err}
			}
		}
		wg.Wait()
	}

	// Results are written in input order regardless of completion order.
	status := 0
	for _, r := range results {
		if _, err := stdout.Write(r.out); err != nil {
			log.Error().Err(err).Msg("Writing output")
			return 1
		}
		if r.err != nil {
			logFailure(r)
			status = 1
		} else {
			log.Debug().Str("input", r.name).Int("values", r.values).Int("words", r.words).Msg("Processed input")
		}
	}
	return status
}

// result is the outcome of processing one input.
type result struct {
	name   string
	out    []byte
	values int // number of values parsed
	words  int // total encoded size of the values
	err    error
}

func processInput(name string, stdin io.Reader, opts *options) result {
	res := result{name: name}
	data, err := readInput(name, stdin)
	if err != nil {
		res.err = err
		return res
	}
	if opts.jwcc {
		data, err = hujson.Standardize(data)
		if err != nil {
			res.err = fmt.Errorf("invalid JWCC: %w", err)
			return res
		}
	}

	var out bytes.Buffer
	src := jstream.NewReaderSource(bytes.NewReader(data))
	emit := func(buf jstream.Buffer) error {
		res.values++
		res.words += len(buf)
		return writeValue(&out, buf, opts)
	}
	if opts.all {
		res.err = opts.parser.NewStream(src).Parse(emit)
	} else {
		buf, last, err := opts.parser.Parse(src)
		if err != nil {
			res.err = err
		} else if last != jstream.EOF {
			res.err = fmt.Errorf("unexpected %q after value", rune(last))
		} else {
			res.err = emit(buf)
		}
	}
	res.out = out.Bytes()
	return res
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// writeValue writes the JSON text of buf to w, followed by a dump of its
// words if requested.
func writeValue(w *bytes.Buffer, buf jstream.Buffer, opts *options) error {
	pos := 0
	if opts.path != nil {
		var err error
		pos, err = cursor.Path(buf, opts.path...)
		if err != nil {
			return fmt.Errorf("path %s: %w", cursor.FormatPath(opts.path), err)
		}
	}
	end, err := buf.Render(w, pos)
	if err != nil {
		return err
	}
	w.WriteByte('\n')
	if opts.words {
		for i, word := range buf[pos:end] {
			fmt.Fprintf(w, "%6d  %08x\n", pos+i, word)
		}
	}
	return nil
}

func logFailure(r result) {
	var perr *jstream.ParseError
	if errors.As(r.err, &perr) {
		ev := log.Error().
			Str("input", r.name).
			Int("code", int(perr.Code)).
			Str("reason", perr.Code.Error()).
			Stringer("location", perr.Location).
			Int("offset", perr.Offset)
		if perr.Last == jstream.EOF {
			ev = ev.Str("last", "EOF")
		} else {
			ev = ev.Str("last", string(rune(perr.Last)))
		}
		ev.Err(r.err).Msg("Parse failed")
		return
	}
	log.Error().Str("input", r.name).Err(r.err).Msg("Processing failed")
}

func setupLogging(level string, pretty bool, w io.Writer) {
	// Set log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	if pretty {
		cw := zerolog.ConsoleWriter{Out: w, NoColor: true}
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			cw.Out = colorable.NewColorable(f)
			cw.NoColor = false
		}
		log.Logger = log.Output(cw)
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
}
