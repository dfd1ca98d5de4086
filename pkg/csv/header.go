package csv

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/derekparker/trie"
)

// Header is the column names of an input. It is immutable and may be shared
// between goroutines.
type Header struct {
	names []string
	index *trie.Trie
}

// NewHeader builds a header from names. If a name occurs more than once,
// lookups by name find its first column.
func NewHeader(names []string) *Header {
	h := &Header{names: append([]string(nil), names...), index: trie.New()}
	for i, name := range h.names {
		if _, ok := h.index.Find(name); ok {
			continue
		}
		h.index.Add(name, i)
	}
	return h
}

// Len returns the number of columns.
func (h *Header) Len() int {
	return len(h.names)
}

// Names returns a copy of the column names.
func (h *Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Name returns the name of column i.
func (h *Header) Name(i int) (string, error) {
	if i < 0 || i >= len(h.names) {
		return "", ErrIndexOutOfRange
	}
	return h.names[i], nil
}

// Index returns the column of name.
func (h *Header) Index(name string) (int, bool) {
	node, ok := h.index.Find(name)
	if !ok {
		return -1, false
	}
	return node.Meta().(int), true
}

// Has reports whether name is a column.
func (h *Header) Has(name string) bool {
	_, ok := h.index.Find(name)
	return ok
}

// WithPrefix returns the columns whose names start with prefix, in column
// order.
func (h *Header) WithPrefix(prefix string) []int {
	keys := h.index.PrefixSearch(prefix)
	cols := make([]int, 0, len(keys))
	for _, k := range keys {
		if i, ok := h.Index(k); ok {
			cols = append(cols, i)
		}
	}
	sort.Ints(cols)
	return cols
}

// Headers are usually identifiers, camelCase or Title Case words.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),
	regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),
	regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
}

// SniffHeader is the default HeaderDetector. It counts the fields that look
// like column names against those that look like data (numbers, dates,
// email addresses) and says header if the names win.
func SniffHeader(fields []string) bool {
	headerScore, dataScore := 0, 0
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if isLikelyHeader(f) {
			headerScore++
		}
		if isLikelyData(f) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, p := range headerPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	dot := false
	for _, ch := range s {
		switch {
		case ch == '.' && !dot:
			dot = true
		case !unicode.IsDigit(ch):
			return false
		}
	}
	return len(s) > 0
}
