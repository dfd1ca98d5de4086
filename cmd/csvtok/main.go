// csvtok reads delimiter separated text and prints the records it finds,
// one per line. It is a debugging aid for dialects: the row ending that was
// detected, where a malformed sequence sits, and what the header looks like.
//
// Run with -h for help.
//
// Dialects come from flags or from a named section of an ini profile file:
//
//	csvtok -profile dialects.ini -name excel-de -header always export.csv
//	csvtok -sep tab -quote none -comment '#' -encoding windows-1252 < data.tsv
//
// Output lines are "<row number>: <cells>" with every cell quoted. With
// -comments, comments are printed as "#: <text>". With -types the cells are
// converted to the listed kinds, column by column, before printing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/rs/zerolog"

	"github.com/shapestone/csvkit/pkg/csv"
)

type config struct {
	opts     csv.ReaderOptions
	input    string
	encoding string
	comments bool
	count    bool
	types    []csv.Kind
	trace    string
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("csvtok failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, log zerolog.Logger) error {
	cfg, err := commandLine(args)
	if err != nil {
		return err
	}
	if cfg.trace != "" {
		tracing.SetTraceSelector(logSelector{log: log, level: tracing.TraceLevelFromString(cfg.trace)})
		defer tracing.SetTraceSelector(nil)
	}

	in := stdin
	if cfg.input != "" && cfg.input != "-" {
		f, err := os.Open(cfg.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var src csv.ChunkSource
	if cfg.encoding != "" {
		enc, err := csv.LookupEncoding(cfg.encoding)
		if err != nil {
			return err
		}
		src = csv.NewDecodingSource(in, enc, cfg.opts.ChunkSize)
	} else {
		src = csv.NewReaderSource(in, cfg.opts.ChunkSize)
	}

	r, err := csv.NewChunkReader(src, cfg.opts)
	if err != nil {
		return err
	}
	defer r.Close()

	if h, err := r.HeaderContext(ctx); err != nil {
		return report(log, r, err)
	} else if h != nil && !cfg.count {
		fmt.Fprintf(stdout, "header: %s\n", quoteAll(h.Names()))
	}

	rows, comments := 0, 0
	for {
		res, err := r.TryReadWithCommentContext(ctx)
		if err != nil {
			return report(log, r, err)
		}
		switch res.Kind() {
		case csv.NoValue:
			log.Info().
				Int("rows", rows).
				Int("comments", comments).
				Str("row_ending", r.RowEnding().String()).
				Msg("done")
			if cfg.count {
				fmt.Fprintf(stdout, "%d rows, %d comments\n", rows, comments)
			}
			return nil
		case csv.HasComment:
			comments++
			if cfg.comments && !cfg.count {
				text, _ := res.Comment()
				fmt.Fprintf(stdout, "#: %q\n", text)
			}
		case csv.HasValue:
			rows++
			row, _ := res.Row()
			if !cfg.count {
				if err := printRow(stdout, row, cfg.types); err != nil {
					return err
				}
			}
			row.Dispose()
		}
	}
}

// report logs where a read failed.
func report(log zerolog.Logger, r *csv.Reader, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		log.Error().
			Int("record", pe.Record).
			Int("line", pe.Line).
			Int("column", pe.Column).
			Int64("offset", pe.Offset).
			Msg("malformed input")
	} else {
		pos := r.Position()
		log.Error().Int("record", pos.Record).Int("line", pos.Line).Msg("read failed")
	}
	return err
}

func printRow(w io.Writer, row *csv.Row, types []csv.Kind) error {
	n, err := row.Len()
	if err != nil {
		return err
	}
	cells := make([]string, n)
	for i := range cells {
		kind := csv.KindString
		if i < len(types) {
			kind = types[i]
		}
		v, err := csv.Convert(row, csv.ByIndex(i), kind)
		if err != nil {
			return fmt.Errorf("row %d: %w", row.Number(), err)
		}
		if s, ok := v.(string); ok {
			cells[i] = strconv.Quote(s)
		} else {
			cells[i] = fmt.Sprint(v)
		}
	}
	_, err = fmt.Fprintf(w, "%d: [%s]\n", row.Number(), strings.Join(cells, " "))
	return err
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(q, " ") + "]"
}

func commandLine(args []string) (*config, error) {
	fs := flag.NewFlagSet("csvtok", flag.ContinueOnError)
	profile := fs.String("profile", "", "Ini file with reader profiles")
	name := fs.String("name", "", "Profile to use from -profile")
	sep := fs.String("sep", "", "Value separator (a character or a name such as `tab`)")
	quote := fs.String("quote", "", "Escape character, or `none`")
	escape := fs.String("escape", "", "Escape character inside quotes, e.g. `backslash`")
	comment := fs.String("comment", "", "Comment character")
	rowEnding := fs.String("row-ending", "", "Row ending: detect, cr, lf or crlf")
	header := fs.String("header", "", "Header mode: never, always or detect")
	required := fs.String("required", "", "Comma separated columns that must be present")
	types := fs.String("types", "", "Comma separated kinds to convert columns to, e.g. `int,string,time`")
	chunk := fs.Int("chunk", 0, "Read size in bytes")
	cfg := &config{}
	fs.StringVar(&cfg.encoding, "encoding", "", "Input encoding, e.g. windows-1252 (default utf-8)")
	fs.BoolVar(&cfg.comments, "comments", false, "Print comments")
	fs.BoolVar(&cfg.count, "count", false, "Print counts only")
	fs.StringVar(&cfg.trace, "trace", "", "Trace level: error, info or debug")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, errors.New("at most one input file")
	}
	cfg.input = fs.Arg(0)

	cfg.opts = csv.DefaultReaderOptions()
	if *profile != "" {
		if *name == "" {
			return nil, errors.New("-profile needs -name")
		}
		f, err := os.Open(*profile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg.opts, err = csv.LoadProfile(f, *name); err != nil {
			return nil, err
		}
	}

	// flags override the profile
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	d := &cfg.opts.Dialect
	var err error
	if set["sep"] {
		if d.Separator, err = parseCharFlag("sep", *sep); err != nil {
			return nil, err
		}
	}
	if set["quote"] {
		if d.EscapeStart, err = parseCharFlag("quote", *quote); err != nil {
			return nil, err
		}
		d.EscapeEnd, d.EscapeChar = 0, 0
	}
	if set["escape"] {
		if d.EscapeChar, err = parseCharFlag("escape", *escape); err != nil {
			return nil, err
		}
	}
	if set["comment"] {
		if d.Comment, err = parseCharFlag("comment", *comment); err != nil {
			return nil, err
		}
	}
	if set["row-ending"] {
		if d.RowEnding, err = parseRowEndingFlag(*rowEnding); err != nil {
			return nil, err
		}
	}
	if set["header"] {
		if cfg.opts.Header, err = parseHeaderFlag(*header); err != nil {
			return nil, err
		}
	}
	if set["required"] {
		cfg.opts.RequiredColumns = splitList(*required)
	}
	if set["chunk"] {
		cfg.opts.ChunkSize = *chunk
	}
	for _, s := range splitList(*types) {
		k, err := csv.ParseKind(s)
		if err != nil {
			return nil, err
		}
		cfg.types = append(cfg.types, k)
	}
	if err := cfg.opts.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var charFlagNames = map[string]byte{
	"none":      0,
	"tab":       '\t',
	`\t`:        '\t',
	"space":     ' ',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	"dquote":    '"',
	"squote":    '\'',
	"backslash": '\\',
}

func parseCharFlag(name, s string) (byte, error) {
	if c, ok := charFlagNames[strings.ToLower(s)]; ok {
		return c, nil
	}
	if len(s) == 1 && s[0] < 0x80 {
		return s[0], nil
	}
	return 0, fmt.Errorf("-%s: want a single ASCII character, got %q", name, s)
}

func parseRowEndingFlag(s string) (csv.RowEnding, error) {
	for _, re := range []csv.RowEnding{csv.RowEndingDetect, csv.RowEndingCR, csv.RowEndingLF, csv.RowEndingCRLF} {
		if strings.EqualFold(s, re.String()) {
			return re, nil
		}
	}
	return csv.RowEndingDetect, fmt.Errorf("-row-ending: unknown row ending %q", s)
}

func parseHeaderFlag(s string) (csv.HeaderMode, error) {
	for _, m := range []csv.HeaderMode{csv.HeaderNever, csv.HeaderAlways, csv.HeaderDetect} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return csv.HeaderNever, fmt.Errorf("-header: unknown mode %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
