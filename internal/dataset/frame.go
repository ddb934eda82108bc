package dataset

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Frame is an immutable table of equally sized columns.
type Frame struct {
	cols []*Column
	rows int
}

// New assembles a frame from columns of equal length.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{cols: cols}
	for i, c := range cols {
		if i == 0 {
			f.rows = c.Len()
			continue
		}
		if c.Len() != f.rows {
			return nil, fmt.Errorf("%q has %d rows, want %d: %w", c.name, c.Len(), f.rows, ErrLengthMismatch)
		}
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Shape returns [rows, columns].
func (f *Frame) Shape() []int { return []int{f.rows, len(f.cols)} }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// NumericColumns returns the names of the numeric columns in order.
func (f *Frame) NumericColumns() []string {
	var names []string
	for _, c := range f.cols {
		if c.IsNumeric() {
			names = append(names, c.name)
		}
	}
	return names
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, error) {
	for _, c := range f.cols {
		if c.name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
}

// Row returns the i-th row keyed by column name.
func (f *Frame) Row(i int) (map[string]any, error) {
	if i < 0 || i >= f.rows {
		return nil, fmt.Errorf("row %d out of range [0, %d)", i, f.rows)
	}
	row := make(map[string]any, len(f.cols))
	for _, c := range f.cols {
		row[c.name] = c.At(i)
	}
	return row, nil
}

// Rows returns every row keyed by column name.
func (f *Frame) Rows() []map[string]any {
	out := make([]map[string]any, f.rows)
	for i := range f.rows {
		out[i], _ = f.Row(i)
	}
	return out
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	n = min(max(n, 0), f.rows)
	return f.take(seq(0, n))
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	n = min(max(n, 0), f.rows)
	return f.take(seq(f.rows-n, f.rows))
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// WithColumn returns a copy of the frame with c added, or replacing the
// column of the same name.
func (f *Frame) WithColumn(c *Column) (*Frame, error) {
	cols := slices.Clone(f.cols)
	if i := slices.IndexFunc(cols, func(x *Column) bool { return x.name == c.name }); i >= 0 {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Filter keeps the rows where `column op value` holds. Numeric columns accept
// ==, !=, <, <=, >, >=; categorical columns accept == and != only.
func (f *Frame) Filter(column, op string, value any) (*Frame, error) {
	c, err := f.Column(column)
	if err != nil {
		return nil, err
	}

	var keep func(i int) bool
	if c.IsNumeric() {
		target, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("filter %q: %v is not a number", column, value)
		}
		match, err := numericOp(op)
		if err != nil {
			return nil, err
		}
		keep = func(i int) bool { return match(c.floats[i], target) }
	} else {
		target := fmt.Sprint(value)
		switch op {
		case "==":
			keep = func(i int) bool { return c.labels[i] == target }
		case "!=":
			keep = func(i int) bool { return c.labels[i] != target }
		default:
			return nil, fmt.Errorf("filter %q: operator %q not supported on categorical column", column, op)
		}
	}

	var idx []int
	for i := range f.rows {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.take(idx), nil
}

// SortBy orders rows by column. The sort is stable.
func (f *Frame) SortBy(column string, ascending bool) (*Frame, error) {
	c, err := f.Column(column)
	if err != nil {
		return nil, err
	}

	idx := seq(0, f.rows)
	compare := func(a, b int) int {
		if c.IsNumeric() {
			return cmp.Compare(c.floats[a], c.floats[b])
		}
		return strings.Compare(c.labels[a], c.labels[b])
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return f.take(idx), nil
}

// Where keeps the rows whose mask entry is true.
func (f *Frame) Where(mask []bool) (*Frame, error) {
	if len(mask) != f.rows {
		return nil, fmt.Errorf("mask has %d entries, want %d: %w", len(mask), f.rows, ErrLengthMismatch)
	}
	var idx []int
	for i, keep := range mask {
		if keep {
			idx = append(idx, i)
		}
	}
	return f.take(idx), nil
}

// IsIn keeps the rows whose value in column is one of values.
func (f *Frame) IsIn(column string, values []string) (*Frame, error) {
	c, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	strs := c.Strings()

	var idx []int
	for i, s := range strs {
		if slices.Contains(values, s) {
			idx = append(idx, i)
		}
	}
	return f.take(idx), nil
}

// Mean returns the mean of every numeric column.
func (f *Frame) Mean() map[string]float64 {
	out := make(map[string]float64)
	for _, c := range f.cols {
		if m, err := c.Mean(); err == nil {
			out[c.name] = m
		}
	}
	return out
}

// Corr returns the Pearson correlation between two numeric columns.
func (f *Frame) Corr(a, b string) (float64, error) {
	ca, err := f.Column(a)
	if err != nil {
		return 0, err
	}
	cb, err := f.Column(b)
	if err != nil {
		return 0, err
	}
	ma, err := ca.Mean()
	if err != nil {
		return 0, err
	}
	mb, err := cb.Mean()
	if err != nil {
		return 0, err
	}

	var cov, va, vb float64
	for i := range f.rows {
		da := ca.floats[i] - ma
		db := cb.floats[i] - mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0, fmt.Errorf("corr %q/%q: zero variance", a, b)
	}
	return cov / math.Sqrt(va*vb), nil
}

// CorrMatrix returns the pairwise correlations of the numeric columns, with
// a leading "column" label column.
func (f *Frame) CorrMatrix() (*Frame, error) {
	names := f.NumericColumns()
	cols := []*Column{NewCategorical("column", names)}
	for _, b := range names {
		vals := make([]float64, len(names))
		for i, a := range names {
			r, err := f.Corr(a, b)
			if err != nil {
				return nil, err
			}
			vals[i] = r
		}
		cols = append(cols, NewNumeric(b, vals))
	}
	return New(cols...)
}

// String renders the first rows as a plain-text table.
func (f *Frame) String() string {
	const preview = 5

	var sb strings.Builder
	sb.WriteString(strings.Join(f.Columns(), " | "))
	for i := range min(preview, f.rows) {
		sb.WriteString("\n")
		cells := make([]string, len(f.cols))
		for j, c := range f.cols {
			cells[j] = FormatValue(c.At(i))
		}
		sb.WriteString(strings.Join(cells, " | "))
	}
	if f.rows > preview {
		fmt.Fprintf(&sb, "\n... (%d rows x %d columns)", f.rows, len(f.cols))
	}
	return sb.String()
}

func (f *Frame) take(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	return &Frame{cols: cols, rows: len(idx)}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func numericOp(op string) (func(a, b float64) bool, error) {
	switch op {
	case "==":
		return func(a, b float64) bool { return a == b }, nil
	case "!=":
		return func(a, b float64) bool { return a != b }, nil
	case "<":
		return func(a, b float64) bool { return a < b }, nil
	case "<=":
		return func(a, b float64) bool { return a <= b }, nil
	case ">":
		return func(a, b float64) bool { return a > b }, nil
	case ">=":
		return func(a, b float64) bool { return a >= b }, nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatValue renders a cell the way tables show it.
func FormatValue(v any) string {
	if f, ok := v.(float64); ok {
		return formatFloat(f)
	}
	return fmt.Sprint(v)
}
