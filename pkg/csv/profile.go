package csv

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	ini "github.com/lars-t-hansen/ini"
)

// Profiles are ini files with one section per named set of reader options:
//
//	# semicolon separated exports
//	[excel-de]
//	separator = semicolon
//	quote = dquote
//	row-ending = crlf
//	header = always
//	required = id,name
//
//	[tsv]
//	separator = tab
//	quote = none
//
// Character fields take a single ASCII character or one of the names in
// charNames. Fields left out keep their DefaultReaderOptions value.

var sectionNameRe = regexp.MustCompile(`^\s*\[\s*([-a-zA-Z0-9_$]+)\s*\]\s*$`)

var charNames = map[string]byte{
	"none":       0,
	"tab":        '\t',
	`\t`:         '\t',
	"space":      ' ',
	"comma":      ',',
	"semicolon":  ';',
	"colon":      ':',
	"pipe":       '|',
	"dquote":     '"',
	"quote":      '"',
	"squote":     '\'',
	"apostrophe": '\'',
	"backslash":  '\\',
	"hash":       '#',
}

func parseChar(s string) (interface{}, bool) {
	if c, ok := charNames[strings.ToLower(s)]; ok {
		return c, true
	}
	if len(s) == 1 && s[0] < 0x80 {
		return s[0], true
	}
	return byte(0), false
}

func parseRowEnding(s string) (interface{}, bool) {
	switch strings.ToLower(s) {
	case "detect", "auto":
		return RowEndingDetect, true
	case "cr":
		return RowEndingCR, true
	case "lf":
		return RowEndingLF, true
	case "crlf":
		return RowEndingCRLF, true
	}
	return RowEndingDetect, false
}

func parseHeaderMode(s string) (interface{}, bool) {
	for _, m := range []HeaderMode{HeaderNever, HeaderAlways, HeaderDetect} {
		if strings.EqualFold(s, m.String()) {
			return m, true
		}
	}
	return HeaderNever, false
}

func parseDisposal(s string) (interface{}, bool) {
	for _, m := range []DisposalMode{DisposeWithReader, DisposeExplicit} {
		if strings.EqualFold(s, m.String()) {
			return m, true
		}
	}
	return DisposeWithReader, false
}

// profileSection holds the fields of one profile section.
type profileSection struct {
	sec       *ini.Section
	separator *ini.Field
	quote     *ini.Field
	quoteEnd  *ini.Field
	escape    *ini.Field
	comment   *ini.Field
	rowEnding *ini.Field
	header    *ini.Field
	disposal  *ini.Field
	required  *ini.Field
	chunkSize *ini.Field
}

func addProfileSection(p *ini.Parser, name string) *profileSection {
	sec := p.AddSection(name)
	return &profileSection{
		sec:       sec,
		separator: sec.Add("separator", ini.TyUser, byte(0), parseChar),
		quote:     sec.Add("quote", ini.TyUser, byte(0), parseChar),
		quoteEnd:  sec.Add("quote-end", ini.TyUser, byte(0), parseChar),
		escape:    sec.Add("escape", ini.TyUser, byte(0), parseChar),
		comment:   sec.Add("comment", ini.TyUser, byte(0), parseChar),
		rowEnding: sec.Add("row-ending", ini.TyUser, RowEndingDetect, parseRowEnding),
		header:    sec.Add("header", ini.TyUser, HeaderNever, parseHeaderMode),
		disposal:  sec.Add("disposal", ini.TyUser, DisposeWithReader, parseDisposal),
		required:  sec.AddString("required"),
		chunkSize: sec.AddInt64("chunk-size"),
	}
}

func (ps *profileSection) options(store *ini.Store) ReaderOptions {
	opts := DefaultReaderOptions()
	setChar := func(dst *byte, f *ini.Field) {
		if f.Present(store) {
			*dst = f.Value(store).(byte)
		}
	}
	d := &opts.Dialect
	setChar(&d.Separator, ps.separator)
	if ps.quote.Present(store) {
		// a new quote character implies matching end and escape characters
		d.EscapeStart = ps.quote.Value(store).(byte)
		d.EscapeEnd, d.EscapeChar = 0, 0
	}
	setChar(&d.EscapeEnd, ps.quoteEnd)
	setChar(&d.EscapeChar, ps.escape)
	setChar(&d.Comment, ps.comment)
	if ps.rowEnding.Present(store) {
		d.RowEnding = ps.rowEnding.Value(store).(RowEnding)
	}
	if ps.header.Present(store) {
		opts.Header = ps.header.Value(store).(HeaderMode)
	}
	if ps.disposal.Present(store) {
		opts.Disposal = ps.disposal.Value(store).(DisposalMode)
	}
	if ps.required.Present(store) {
		for _, name := range strings.Split(ps.required.StringVal(store), ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.RequiredColumns = append(opts.RequiredColumns, name)
			}
		}
	}
	if ps.chunkSize.Present(store) {
		opts.ChunkSize = int(ps.chunkSize.Int64Val(store))
	}
	return opts
}

// LoadProfiles reads reader profiles in ini format and returns the options
// of every section, keyed by section name. Each profile is validated.
func LoadProfiles(r io.Reader) (map[string]ReaderOptions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p := ini.NewParser()
	sections := make(map[string]*profileSection)
	for _, line := range strings.Split(string(data), "\n") {
		m := sectionNameRe.FindStringSubmatch(line)
		if m == nil || sections[m[1]] != nil {
			continue
		}
		sections[m[1]] = addProfileSection(p, m[1])
	}

	store, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("csv: profile: %w", err)
	}
	profiles := make(map[string]ReaderOptions, len(sections))
	for name, ps := range sections {
		opts := ps.options(store)
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("csv: profile %s: %w", name, err)
		}
		profiles[name] = opts
	}
	return profiles, nil
}

// LoadProfile reads reader profiles in ini format and returns the one
// called name.
func LoadProfile(r io.Reader, name string) (ReaderOptions, error) {
	profiles, err := LoadProfiles(r)
	if err != nil {
		return ReaderOptions{}, err
	}
	opts, ok := profiles[name]
	if !ok {
		return ReaderOptions{}, fmt.Errorf("csv: no profile named %q", name)
	}
	return opts, nil
}
