package tokenizer

import (
	"errors"
	"reflect"
	"testing"
)

func TestTableShape(t *testing.T) {
	all := Tables()
	if len(all) != numRowEndings*4 {
		t.Fatalf("len(Tables()) = %d, want %d", len(all), numRowEndings*4)
	}
	for _, tbl := range all {
		if len(tbl.Rules) != int(MaxState)+1 {
			t.Errorf("%s: %d state rows, want %d", tbl.Key, len(tbl.Rules), int(MaxState)+1)
		}
		if len(tbl.Rules[0]) != int(MaxClass)+1 {
			t.Errorf("%s: %d class columns, want %d", tbl.Key, len(tbl.Rules[0]), int(MaxClass)+1)
		}
		if len(tbl.EOF) != len(tbl.Rules) || len(tbl.Info) != len(tbl.Rules) {
			t.Errorf("%s: EOF/Info rows do not match rule rows", tbl.Key)
		}
	}
}

func TestTablesDeterministic(t *testing.T) {
	for i, tbl := range Tables() {
		if tbl.Key.index() != i {
			t.Errorf("table %d has key %s with index %d", i, tbl.Key, tbl.Key.index())
		}
		if again := compile(tbl.Key); !reflect.DeepEqual(again, tbl) {
			t.Errorf("recompiling %s gave a different table", tbl.Key)
		}
		if TableFor(tbl.Key) != tbl {
			t.Errorf("TableFor(%s) did not return the shared table", tbl.Key)
		}
	}
}

func TestTablesDistinct(t *testing.T) {
	all := Tables()
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if reflect.DeepEqual(all[i].Rules, all[j].Rules) && reflect.DeepEqual(all[i].EOF, all[j].EOF) {
				t.Errorf("tables %s and %s are identical", all[i].Key, all[j].Key)
			}
		}
	}
}

func TestTableResolveOnlyInDetect(t *testing.T) {
	for _, tbl := range Tables() {
		detect := tbl.Key.RowEnding == RowEndingDetect
		found := false
		for s := range tbl.Rules {
			for _, r := range tbl.Rules[s] {
				switch r.Action {
				case ActResolveCR, ActResolveLF, ActResolveCRLF:
					found = true
				}
			}
		}
		if found != detect {
			t.Errorf("%s: resolve actions present = %t", tbl.Key, found)
		}
	}
}

func TestStateInfo(t *testing.T) {
	tests := []struct {
		state State
		want  StateInfo
	}{
		{HeaderStart, StateInfo{Phase: PhaseHeader}},
		{RecordStart, StateInfo{Phase: PhaseRecord}},
		{stateOf(PhaseRecord, lEscaped), StateInfo{Phase: PhaseRecord, InEscapedValue: true, Accumulating: true}},
		{stateOf(PhaseHeader, lPendingEnd), StateInfo{Phase: PhaseHeader, InEscapedValue: true, PendingEscape: true, CanEndRecord: true, Accumulating: true}},
		{stateOf(PhaseRecord, lCommentCR), StateInfo{Phase: PhaseRecord, InComment: true, Accumulating: true}},
		{stateOf(PhaseRecord, lWithValue), StateInfo{Phase: PhaseRecord, CanEndRecord: true, Accumulating: true}},
		{Invalid, StateInfo{Phase: PhaseTerminal}},
		{DataEnded, StateInfo{Phase: PhaseTerminal}},
	}

	tbl := TableFor(TableKey{})
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tbl.Info[tt.state]; got != tt.want {
				t.Errorf("Info[%s] = %+v, want %+v", tt.state, got, tt.want)
			}
		})
	}
}

func TestCROrigin(t *testing.T) {
	tbl := TableFor(TableKey{RowEnding: RowEndingDetect})
	tests := map[local]local{
		lStartCR:         lStart,
		lNoValueCR:       lNoValue,
		lWithValueCR:     lWithValue,
		lExpectEndRecord: lExpectEndValueOrRecord,
		lCommentCR:       lComment,
		lEscaped:         lEscaped,
	}
	for _, p := range []Phase{PhaseHeader, PhaseRecord} {
		for from, to := range tests {
			if got := tbl.CROrigin[stateOf(p, from)]; got != stateOf(p, to) {
				t.Errorf("CROrigin[%s] = %s, want %s", stateOf(p, from), got, stateOf(p, to))
			}
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		b       byte
		outside Class
		inside  Class
	}{
		{"separator", DefaultConfig(), ',', ClassValueSeparator, ClassValueSeparator},
		{"doubled quote", DefaultConfig(), '"', ClassEscapeStart, ClassEscapeEnd},
		{"cr", DefaultConfig(), '\r', ClassCarriageReturn, ClassCarriageReturn},
		{"lf", DefaultConfig(), '\n', ClassLineFeed, ClassLineFeed},
		{"letter", DefaultConfig(), 'x', ClassOther, ClassOther},
		{"utf-8 byte", DefaultConfig(), 0xc3, ClassOther, ClassOther},
		{"comment", Config{Separator: ';', Comment: '#'}, '#', ClassCommentStart, ClassCommentStart},
		{"backslash escape", Config{Separator: ',', EscapeStart: '"', EscapeChar: '\\'}, '\\', ClassEscapeChar, ClassEscapeChar},
		{"backslash dialect quote", Config{Separator: ',', EscapeStart: '"', EscapeChar: '\\'}, '"', ClassEscapeStart, ClassEscapeEnd},
		{"bracket start", Config{Separator: ',', EscapeStart: '[', EscapeEnd: ']'}, '[', ClassEscapeStart, ClassOther},
		{"bracket end", Config{Separator: ',', EscapeStart: '[', EscapeEnd: ']'}, ']', ClassEscapeEnd, ClassEscapeEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.config)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := p.Classify(tt.b, false); got != tt.outside {
				t.Errorf("outside class of %q = %s, want %s", tt.b, got, tt.outside)
			}
			if got := p.Classify(tt.b, true); got != tt.inside {
				t.Errorf("inside class of %q = %s, want %s", tt.b, got, tt.inside)
			}
		})
	}
}

func TestCompileCaches(t *testing.T) {
	a, err := Compile(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Implied escape characters normalize to the same dialect
	b, err := Compile(Config{Separator: ',', EscapeStart: '"'})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("equal dialects compiled to different programs")
	}
	if a.Table() != b.Table() {
		t.Error("equal dialects use different tables")
	}
}

func TestCompileKey(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   TableKey
	}{
		{"default", DefaultConfig(), TableKey{RowEnding: RowEndingDetect}},
		{"comments", Config{Separator: ',', Comment: '#', RowEnding: RowEndingLF}, TableKey{RowEnding: RowEndingLF, Comments: true}},
		{"custom escape", Config{Separator: ',', EscapeStart: '"', EscapeChar: '\\', RowEnding: RowEndingCRLF},
			TableKey{RowEnding: RowEndingCRLF, CustomEscape: true}},
		{"no escaping", Config{Separator: '\t', RowEnding: RowEndingCR}, TableKey{RowEnding: RowEndingCR}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.config)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if p.Key() != tt.want {
				t.Errorf("Key() = %s, want %s", p.Key(), tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		field   string
		wantErr bool
	}{
		{"default", DefaultConfig(), "", false},
		{"tab no escape", Config{Separator: '\t'}, "", false},
		{"custom escape", Config{Separator: ',', EscapeStart: '"', EscapeEnd: '"', EscapeChar: '\\'}, "", false},
		{"brackets", Config{Separator: ',', EscapeStart: '[', EscapeEnd: ']'}, "", false},
		{"missing separator", Config{}, "Separator", true},
		{"non ascii separator", Config{Separator: 0xa7}, "Separator", true},
		{"line break separator", Config{Separator: '\n'}, "Separator", true},
		{"comment equals separator", Config{Separator: ',', Comment: ','}, "Comment", true},
		{"quote equals separator", Config{Separator: '"', EscapeStart: '"'}, "EscapeStart", true},
		{"escape char equals distinct start", Config{Separator: ',', EscapeStart: '[', EscapeEnd: ']', EscapeChar: '['}, "EscapeChar", true},
		{"escape char without start", Config{Separator: ',', EscapeChar: '\\'}, "EscapeStart", true},
		{"comment equals quote", Config{Separator: ',', EscapeStart: '"', Comment: '"'}, "Comment", true},
		{"bad row ending", Config{Separator: ',', RowEnding: RowEnding(9)}, "RowEnding", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error type = %T, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
			if _, err := Compile(tt.config); err == nil {
				t.Error("Compile() accepted an invalid dialect")
			}
		})
	}
}
