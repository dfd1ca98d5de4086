package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/rs/zerolog"

	"github.com/shapestone/csvkit/pkg/csv"
)

func runCSVTok(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(input), &out, zerolog.New(&logs))
	return out.String(), logs.String(), err
}

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"plain", nil, "a,b\r\nc,d\r\n", "1: [\"a\" \"b\"]\n2: [\"c\" \"d\"]\n"},
		{"header", []string{"-header", "always"}, "name,age\nAlice,30\n",
			"header: [\"name\" \"age\"]\n1: [\"Alice\" \"30\"]\n"},
		{"types", []string{"-types", "string, int,bool"}, "a,1,yes\n", "1: [\"a\" 1 true]\n"},
		{"comments", []string{"-comment", "#", "-comments"}, "#hi\na\n", "#: \"hi\"\n1: [\"a\"]\n"},
		{"comment after header", []string{"-header", "always", "-comment", "#", "-comments"}, "h\n#c\nx\n",
			"header: [\"h\"]\n#: \"c\"\n1: [\"x\"]\n"},
		{"hidden comments", []string{"-comment", "#"}, "#hi\na\n", "1: [\"a\"]\n"},
		{"count", []string{"-count", "-comment", "#"}, "#hi\na\nb\n", "2 rows, 1 comments\n"},
		{"tab no quotes", []string{"-sep", "tab", "-quote", "none"}, "\"a\tb\n", "1: [\"\\\"a\" \"b\"]\n"},
		{"backslash escape", []string{"-escape", "backslash", "-quote", "dquote"}, "\"a\\\"b\"\n", "1: [\"a\\\"b\"]\n"},
		{"encoding", []string{"-encoding", "windows-1252"}, "caf\xe9\n", "1: [\"café\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, logs, err := runCSVTok(t, tt.input, tt.args...)
			if err != nil {
				t.Fatalf("run() error = %v\n%s", err, logs)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialects.ini")
	ini := "[semi]\nseparator = semicolon\nheader = always\n"
	if err := os.WriteFile(path, []byte(ini), 0o600); err != nil {
		t.Fatal(err)
	}

	got, _, err := runCSVTok(t, "x;y\n1;2\n", "-profile", path, "-name", "semi")
	if err != nil {
		t.Fatal(err)
	}
	if want := "header: [\"x\" \"y\"]\n1: [\"1\" \"2\"]\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	// flags override the profile
	got, _, err = runCSVTok(t, "x|y\n", "-profile", path, "-name", "semi", "-sep", "pipe", "-header", "never")
	if err != nil {
		t.Fatal(err)
	}
	if want := "1: [\"x\" \"y\"]\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunMalformed(t *testing.T) {
	_, logs, err := runCSVTok(t, "ok\n\"a\"b\n")
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("run() error = %v, want *ParseError", err)
	}
	if !strings.Contains(logs, "malformed input") || !strings.Contains(logs, `"line":2`) {
		t.Errorf("logs = %s", logs)
	}
}

func TestCommandLineErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"long separator", []string{"-sep", "ab"}},
		{"unknown header mode", []string{"-header", "sometimes"}},
		{"unknown row ending", []string{"-row-ending", "nl"}},
		{"profile without name", []string{"-profile", "x.ini"}},
		{"unknown kind", []string{"-types", "decimal"}},
		{"invalid dialect", []string{"-sep", "dquote"}},
		{"required without header", []string{"-required", "id"}},
		{"two inputs", []string{"a.csv", "b.csv"}},
		{"unknown flag", []string{"-frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := commandLine(tt.args); err == nil {
				t.Errorf("commandLine(%q) accepted bad arguments", tt.args)
			}
		})
	}
}

func TestRunTracesToLogger(t *testing.T) {
	_, logs, err := runCSVTok(t, "a\nb\n", "-trace", "debug")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs, `"tracer":"csvkit.tokenizer"`) {
		t.Errorf("no tokenizer trace in logs:\n%s", logs)
	}
	if !strings.Contains(logs, `"row_ending":"LF"`) {
		t.Errorf("no summary in logs:\n%s", logs)
	}
}

func TestLogTraceLevels(t *testing.T) {
	var buf bytes.Buffer
	sel := logSelector{log: zerolog.New(&buf), level: tracing.LevelInfo}
	tr := sel.Select("csvkit.test")
	tr.Debugf("hidden")
	tr.Infof("shown %d", 1)
	tr.P("k", "v").Errorf("failed")
	tr.SetOutput(io.Discard)
	tr.Errorf("discarded")

	logs := buf.String()
	if strings.Contains(logs, "hidden") || strings.Contains(logs, "discarded") {
		t.Errorf("trace level or output ignored:\n%s", logs)
	}
	if !strings.Contains(logs, "shown 1") || !strings.Contains(logs, `"k":"v"`) {
		t.Errorf("missing traces:\n%s", logs)
	}
}
