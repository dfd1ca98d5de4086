package csv_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shapestone/csvkit/pkg/csv"
)

const profiles = `
# exports from the accounting system
[excel-de]
separator = semicolon
row-ending = crlf
header = always
required = id, name

[tsv]
separator = tab
quote = none
disposal = explicit
chunk-size = 4096

[brackets]
separator = |
quote = [
quote-end = ]
escape = backslash
comment = hash
header = detect
`

func TestLoadProfiles(t *testing.T) {
	got, err := csv.LoadProfiles(strings.NewReader(profiles))
	if err != nil {
		t.Fatalf("LoadProfiles() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d profiles, want 3", len(got))
	}

	de := got["excel-de"]
	if de.Dialect.Separator != ';' || de.Dialect.EscapeStart != '"' || de.Dialect.RowEnding != csv.RowEndingCRLF {
		t.Errorf("excel-de dialect = %+v", de.Dialect)
	}
	if de.Header != csv.HeaderAlways || !reflect.DeepEqual(de.RequiredColumns, []string{"id", "name"}) {
		t.Errorf("excel-de header = %s, required = %q", de.Header, de.RequiredColumns)
	}

	tsv := got["tsv"]
	if tsv.Dialect.Separator != '\t' || tsv.Dialect.EscapeStart != 0 {
		t.Errorf("tsv dialect = %+v", tsv.Dialect)
	}
	if tsv.Disposal != csv.DisposeExplicit || tsv.ChunkSize != 4096 {
		t.Errorf("tsv disposal = %s, chunk size = %d", tsv.Disposal, tsv.ChunkSize)
	}

	want := csv.Dialect{Separator: '|', EscapeStart: '[', EscapeEnd: ']', EscapeChar: '\\', Comment: '#'}
	if b := got["brackets"]; b.Dialect != want || b.Header != csv.HeaderDetect {
		t.Errorf("brackets = %+v, header %s", b.Dialect, b.Header)
	}
}

func TestLoadProfileDrivesReader(t *testing.T) {
	opts, err := csv.LoadProfile(strings.NewReader(profiles), "excel-de")
	if err != nil {
		t.Fatal(err)
	}
	r := newReader(t, "id;name\r\n1;\"Müller; Hans\"\r\n", opts)
	row, ok, err := r.TryRead()
	if err != nil || !ok {
		t.Fatalf("TryRead() = %t, %v", ok, err)
	}
	if v, _ := row.ByName("name"); v != "Müller; Hans" {
		t.Errorf("ByName(name) = %q", v)
	}
}

func TestLoadProfilesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", "[p]\ndelimiter = ,\n"},
		{"bad character", "[p]\nseparator = ;;\n"},
		{"bad row ending", "[p]\nrow-ending = nl\n"},
		{"invalid dialect", "[p]\nseparator = dquote\n"},
		{"setting outside section", "separator = ,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := csv.LoadProfiles(strings.NewReader(tt.input)); err == nil {
				t.Error("LoadProfiles() accepted invalid input")
			}
		})
	}

	var oe *csv.OptionsError
	_, err := csv.LoadProfiles(strings.NewReader("[p]\nseparator = dquote\n"))
	if !errors.As(err, &oe) {
		t.Errorf("invalid dialect error = %v, want *OptionsError", err)
	}
	if _, err := csv.LoadProfile(strings.NewReader(profiles), "nope"); err == nil {
		t.Error("LoadProfile() found a missing profile")
	}
}
