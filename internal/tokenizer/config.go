package tokenizer

import "fmt"

// RowEnding selects which byte sequence terminates a record.
type RowEnding uint8

const (
	// RowEndingDetect fixes the row ending on the first CR, LF or CR LF seen
	// outside an escaped value.
	RowEndingDetect RowEnding = iota
	RowEndingCR
	RowEndingLF
	RowEndingCRLF

	numRowEndings = int(RowEndingCRLF) + 1
)

func (r RowEnding) String() string {
	switch r {
	case RowEndingDetect:
		return "Detect"
	case RowEndingCR:
		return "CR"
	case RowEndingLF:
		return "LF"
	case RowEndingCRLF:
		return "CRLF"
	}
	return fmt.Sprintf("RowEnding(%d)", uint8(r))
}

// Config is a dialect as the tokenizer sees it. A zero byte disables the
// corresponding role.
type Config struct {
	Separator   byte
	EscapeStart byte
	EscapeEnd   byte
	EscapeChar  byte
	Comment     byte
	RowEnding   RowEnding
}

// DefaultConfig returns the comma separated, double-quoted dialect with
// row ending detection and no comments.
func DefaultConfig() Config {
	return Config{
		Separator:   ',',
		EscapeStart: '"',
		EscapeEnd:   '"',
		EscapeChar:  '"',
		RowEnding:   RowEndingDetect,
	}
}

// ConfigError reports an unusable dialect.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid dialect: %s: %s", e.Field, e.Reason)
}

// Normalize fills in implied escape characters: a missing escape end is the
// escape start, a missing escape character is the escape end (the doubled
// quote convention).
func (c Config) Normalize() Config {
	if c.EscapeStart != 0 {
		if c.EscapeEnd == 0 {
			c.EscapeEnd = c.EscapeStart
		}
		if c.EscapeChar == 0 {
			c.EscapeChar = c.EscapeEnd
		}
	}
	return c
}

// CustomEscape reports whether escaped values use an escape character other
// than the escape end.
func (c Config) CustomEscape() bool {
	c = c.Normalize()
	return c.EscapeStart != 0 && c.EscapeChar != c.EscapeEnd
}

// Validate checks a dialect. Special characters must be single-byte ASCII
// other than CR and LF, and pairwise distinct. Two aliases are allowed: the
// escape start may equal the escape end, and the escape character may equal
// the escape end.
func (c Config) Validate() error {
	c = c.Normalize()
	if c.Separator == 0 {
		return &ConfigError{"Separator", "must be set"}
	}
	roles := []struct {
		name string
		b    byte
	}{
		{"Separator", c.Separator},
		{"EscapeStart", c.EscapeStart},
		{"EscapeEnd", c.EscapeEnd},
		{"EscapeChar", c.EscapeChar},
		{"Comment", c.Comment},
	}
	for _, r := range roles {
		switch {
		case r.b == 0:
		case r.b >= 0x80:
			return &ConfigError{r.name, fmt.Sprintf("%#x is not an ASCII character", r.b)}
		case r.b == '\r' || r.b == '\n':
			return &ConfigError{r.name, "cannot be a line break"}
		}
	}
	if c.EscapeStart == 0 && (c.EscapeEnd != 0 || c.EscapeChar != 0) {
		return &ConfigError{"EscapeStart", "must be set when EscapeEnd or EscapeChar is set"}
	}
	for i := 0; i < len(roles); i++ {
		for j := i + 1; j < len(roles); j++ {
			a, b := roles[i], roles[j]
			if a.b == 0 || a.b != b.b || aliasAllowed(a.name, b.name, c) {
				continue
			}
			return &ConfigError{b.name, fmt.Sprintf("%q is already used as %s", b.b, a.name)}
		}
	}
	if c.RowEnding > RowEndingCRLF {
		return &ConfigError{"RowEnding", fmt.Sprintf("unknown mode %d", c.RowEnding)}
	}
	return nil
}

func aliasAllowed(a, b string, c Config) bool {
	switch {
	case a == "EscapeStart" && b == "EscapeEnd":
		return true
	case a == "EscapeEnd" && b == "EscapeChar":
		return true
	case a == "EscapeStart" && b == "EscapeChar":
		// Only as part of the all-three-equal doubled quote dialect
		return c.EscapeStart == c.EscapeEnd
	}
	return false
}

func (c Config) key() TableKey {
	return TableKey{
		RowEnding:    c.RowEnding,
		Comments:     c.Comment != 0,
		CustomEscape: c.CustomEscape(),
	}
}
