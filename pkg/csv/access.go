package csv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AccessorKind tells which member of an Accessor is set.
type AccessorKind uint8

const (
	AccessByIndex AccessorKind = iota
	AccessByName
	AccessByRange
)

// Accessor addresses cells of a row: one cell by position, one cell by
// header name, or the half-open range [From, To) of positions.
type Accessor struct {
	Kind  AccessorKind
	Index int
	Name  string
	From  int
	To    int
}

// ByIndex addresses cell i.
func ByIndex(i int) Accessor { return Accessor{Kind: AccessByIndex, Index: i} }

// ByName addresses the cell under the header column name.
func ByName(name string) Accessor { return Accessor{Kind: AccessByName, Name: name} }

// ByRange addresses cells from through to-1.
func ByRange(from, to int) Accessor { return Accessor{Kind: AccessByRange, From: from, To: to} }

func (a Accessor) String() string {
	switch a.Kind {
	case AccessByIndex:
		return fmt.Sprintf("[%d]", a.Index)
	case AccessByName:
		return strconv.Quote(a.Name)
	case AccessByRange:
		return fmt.Sprintf("[%d:%d]", a.From, a.To)
	}
	return "Accessor(?)"
}

// Kind is the target type of a cell conversion.
type Kind uint8

const (
	KindString Kind = iota // string
	KindInt                // int64
	KindUint               // uint64
	KindFloat              // float64
	KindBool               // bool
	KindTime               // time.Time
	numKinds
)

var kindNames = [numKinds]string{"string", "int", "uint", "float", "bool", "time"}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the Kind named s, as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("csv: unknown kind %q", s)
}

// ConvertFunc turns the bytes of one cell into a typed value. Empty cells
// convert to the zero value of the kind.
type ConvertFunc func(cell []byte) (interface{}, error)

// Converters is the conversion table, indexed by Kind.
var Converters = [numKinds]ConvertFunc{
	KindString: convertString,
	KindInt:    convertInt,
	KindUint:   convertUint,
	KindFloat:  convertFloat,
	KindBool:   convertBool,
	KindTime:   convertTime,
}

// TimeLayouts are tried in order by the KindTime conversion.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// ConversionError reports a cell that does not parse as the requested kind.
type ConversionError struct {
	Accessor Accessor
	Kind     Kind
	Value    string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("csv: cannot convert %s %q to %s: %v", e.Accessor, e.Value, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Convert resolves a on row and converts the addressed cell to kind. For a
// range accessor the result is a []interface{} with one value per cell.
func Convert(row *Row, a Accessor, kind Kind) (interface{}, error) {
	if kind >= numKinds {
		return nil, fmt.Errorf("csv: unknown kind %d", kind)
	}
	cells, err := row.Resolve(a)
	if err != nil {
		return nil, err
	}
	conv := Converters[kind]
	if a.Kind != AccessByRange {
		return convertCell(conv, a, kind, cells[0])
	}
	vals := make([]interface{}, len(cells))
	for i, c := range cells {
		if vals[i], err = convertCell(conv, ByIndex(a.From+i), kind, c); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func convertCell(conv ConvertFunc, a Accessor, kind Kind, cell []byte) (interface{}, error) {
	v, err := conv(cell)
	if err != nil {
		return nil, &ConversionError{Accessor: a, Kind: kind, Value: string(cell), Err: err}
	}
	return v, nil
}

func convertString(cell []byte) (interface{}, error) {
	return string(cell), nil
}

func convertInt(cell []byte) (interface{}, error) {
	s := strings.TrimSpace(string(cell))
	if s == "" {
		return int64(0), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func convertUint(cell []byte) (interface{}, error) {
	s := strings.TrimSpace(string(cell))
	if s == "" {
		return uint64(0), nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func convertFloat(cell []byte) (interface{}, error) {
	s := strings.TrimSpace(string(cell))
	if s == "" {
		return float64(0), nil
	}
	return strconv.ParseFloat(s, 64)
}

var errNotBool = errors.New("not a boolean")

// Recognizes true/false, 1/0, yes/no, y/n, on/off and t/f in any case.
func convertBool(cell []byte) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(string(cell))) {
	case "true", "1", "yes", "y", "on", "t":
		return true, nil
	case "false", "0", "no", "n", "off", "f", "":
		return false, nil
	}
	return false, errNotBool
}

func convertTime(cell []byte) (interface{}, error) {
	s := strings.TrimSpace(string(cell))
	if s == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range TimeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
