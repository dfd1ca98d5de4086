package csv_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shapestone/csvkit/internal/buffer"
	"github.com/shapestone/csvkit/pkg/csv"
)

func firstRow(t *testing.T, input string, opts csv.ReaderOptions) *csv.Row {
	t.Helper()
	row, ok, err := newReader(t, input, opts).TryRead()
	if err != nil || !ok {
		t.Fatalf("TryRead() = %t, %v", ok, err)
	}
	return row
}

func TestRowRange(t *testing.T) {
	row := firstRow(t, "a,b,c,d\n", csv.DefaultReaderOptions())
	tests := []struct {
		name     string
		from, to int
		want     []string
		wantErr  error
	}{
		{"all", 0, 4, []string{"a", "b", "c", "d"}, nil},
		{"middle", 1, 3, []string{"b", "c"}, nil},
		{"empty", 2, 2, []string{}, nil},
		{"negative", -1, 2, nil, csv.ErrIndexOutOfRange},
		{"reversed", 3, 1, nil, csv.ErrIndexOutOfRange},
		{"past end", 2, 5, nil, csv.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := row.Range(tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Range() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer view.Dispose()
			if got := mustFields(t, view); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Range(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRowViewsDisposeIndependently(t *testing.T) {
	row := firstRow(t, "a,b,c\n", csv.DefaultReaderOptions())
	left, _ := row.Range(0, 2)
	right, _ := row.Slice(1)
	inner, _ := left.Slice(1)

	left.Dispose()
	if _, err := left.Field(0); !errors.Is(err, csv.ErrDisposed) {
		t.Errorf("left.Field() error = %v, want ErrDisposed", err)
	}
	if _, err := left.Range(0, 1); !errors.Is(err, csv.ErrDisposed) {
		t.Errorf("left.Range() error = %v, want ErrDisposed", err)
	}
	if got := mustFields(t, inner); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("inner = %q", got)
	}
	row.Dispose()
	if got := mustFields(t, right); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("right = %q", got)
	}
	if _, err := row.Len(); !errors.Is(err, csv.ErrDisposed) {
		t.Errorf("row.Len() error = %v, want ErrDisposed", err)
	}
	right.Dispose()
	inner.Dispose()
}

func TestRowByName(t *testing.T) {
	opts := csv.DefaultReaderOptions()
	opts.Header = csv.HeaderAlways
	row := firstRow(t, "id,name,city\n7,Ann,Oslo\n", opts)

	if v, err := row.ByName("city"); err != nil || v != "Oslo" {
		t.Errorf("ByName(city) = %q, %v", v, err)
	}
	if _, err := row.ByName("zip"); !errors.Is(err, csv.ErrUnknownColumn) {
		t.Errorf("ByName(zip) error = %v, want ErrUnknownColumn", err)
	}

	tail, err := row.Slice(1)
	if err != nil {
		t.Fatal(err)
	}
	defer tail.Dispose()
	if v, err := tail.ByName("name"); err != nil || v != "Ann" {
		t.Errorf("tail.ByName(name) = %q, %v", v, err)
	}
	if _, err := tail.ByName("id"); !errors.Is(err, csv.ErrIndexOutOfRange) {
		t.Errorf("tail.ByName(id) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestRowWithoutHeader(t *testing.T) {
	row := firstRow(t, "x\n", csv.DefaultReaderOptions())
	if row.Header() != nil {
		t.Error("Header() != nil without a header")
	}
	if _, err := row.ByName("x"); !errors.Is(err, csv.ErrUnknownColumn) {
		t.Errorf("ByName() error = %v, want ErrUnknownColumn", err)
	}
}

func TestRowResolve(t *testing.T) {
	opts := csv.DefaultReaderOptions()
	opts.Header = csv.HeaderAlways
	row := firstRow(t, "a,b,c\n1,2,3\n", opts)

	tests := []struct {
		name     string
		accessor csv.Accessor
		want     []string
		wantErr  error
	}{
		{"index", csv.ByIndex(1), []string{"2"}, nil},
		{"name", csv.ByName("c"), []string{"3"}, nil},
		{"range", csv.ByRange(0, 2), []string{"1", "2"}, nil},
		{"bad index", csv.ByIndex(3), nil, csv.ErrIndexOutOfRange},
		{"bad name", csv.ByName("d"), nil, csv.ErrUnknownColumn},
		{"bad range", csv.ByRange(1, 4), nil, csv.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, err := row.Resolve(tt.accessor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve(%s) error = %v, want %v", tt.accessor, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := make([]string, len(cells))
			for i, c := range cells {
				got[i] = string(c)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%s) = %q, want %q", tt.accessor, got, tt.want)
			}
		})
	}
}

func TestRowString(t *testing.T) {
	row := firstRow(t, "a,b\n", csv.DefaultReaderOptions())
	if got := row.String(); got != "[a b]" {
		t.Errorf("String() = %q", got)
	}
	row.Dispose()
	if got := row.String(); got != "<disposed>" {
		t.Errorf("String() after Dispose = %q", got)
	}
}

func TestRowCopiesShareDisposal(t *testing.T) {
	opts := csv.DefaultReaderOptions()
	opts.Disposal = csv.DisposeExplicit
	row := firstRow(t, "a,b\n", opts)
	live := buffer.Default.Live()

	dup := *row
	row.Dispose()
	dup.Dispose()

	if got := buffer.Default.Live(); got != live-1 {
		t.Errorf("live blocks = %d, want %d", got, live-1)
	}
	if _, err := dup.Field(0); !errors.Is(err, csv.ErrDisposed) {
		t.Errorf("Field() on copy = %v, want ErrDisposed", err)
	}
}
