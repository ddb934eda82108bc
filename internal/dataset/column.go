package dataset

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Column is a named, immutable vector of either float64 or string values.
type Column struct {
	name        string
	categorical bool
	floats      []float64
	labels      []string
}

// NewNumeric creates a numeric column. The slice is copied.
func NewNumeric(name string, values []float64) *Column {
	return &Column{name: name, floats: slices.Clone(values)}
}

// NewCategorical creates a categorical column. The slice is copied.
func NewCategorical(name string, values []string) *Column {
	return &Column{name: name, categorical: true, labels: slices.Clone(values)}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// IsNumeric reports whether the column holds float64 values.
func (c *Column) IsNumeric() bool { return !c.categorical }

// Len returns the number of values.
func (c *Column) Len() int {
	if c.IsNumeric() {
		return len(c.floats)
	}
	return len(c.labels)
}

// Count returns the number of values, matching Len.
func (c *Column) Count() int { return c.Len() }

// At returns the i-th value as float64 or string.
func (c *Column) At(i int) any {
	if c.IsNumeric() {
		return c.floats[i]
	}
	return c.labels[i]
}

// Values returns a copy of the column as a generic slice.
func (c *Column) Values() []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}

// Floats returns a copy of the numeric values.
func (c *Column) Floats() ([]float64, error) {
	if !c.IsNumeric() {
		return nil, fmt.Errorf("%q: %w", c.name, ErrNotNumeric)
	}
	return slices.Clone(c.floats), nil
}

// Strings returns every value formatted as a string.
func (c *Column) Strings() []string {
	if !c.IsNumeric() {
		return slices.Clone(c.labels)
	}
	out := make([]string, len(c.floats))
	for i, f := range c.floats {
		out[i] = formatFloat(f)
	}
	return out
}

func (c *Column) numeric() ([]float64, error) {
	if !c.IsNumeric() {
		return nil, fmt.Errorf("%q: %w", c.name, ErrNotNumeric)
	}
	if len(c.floats) == 0 {
		return nil, fmt.Errorf("%q: %w", c.name, ErrEmpty)
	}
	return c.floats, nil
}

// Sum returns the total of a numeric column.
func (c *Column) Sum() (float64, error) {
	vals, err := c.numeric()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return total, nil
}

// Mean returns the arithmetic mean of a numeric column.
func (c *Column) Mean() (float64, error) {
	total, err := c.Sum()
	if err != nil {
		return 0, err
	}
	return total / float64(len(c.floats)), nil
}

// Std returns the sample standard deviation (n-1 denominator).
func (c *Column) Std() (float64, error) {
	mean, err := c.Mean()
	if err != nil {
		return 0, err
	}
	if len(c.floats) < 2 {
		return 0, fmt.Errorf("%q: std needs at least two values: %w", c.name, ErrEmpty)
	}
	var sq float64
	for _, v := range c.floats {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(c.floats)-1)), nil
}

// Min returns the smallest value of a numeric column.
func (c *Column) Min() (float64, error) {
	vals, err := c.numeric()
	if err != nil {
		return 0, err
	}
	return slices.Min(vals), nil
}

// Max returns the largest value of a numeric column.
func (c *Column) Max() (float64, error) {
	vals, err := c.numeric()
	if err != nil {
		return 0, err
	}
	return slices.Max(vals), nil
}

// Median returns the 0.5 quantile.
func (c *Column) Median() (float64, error) {
	return c.Quantile(0.5)
}

// Quantile returns the q-th quantile using linear interpolation between the
// two nearest ranks.
func (c *Column) Quantile(q float64) (float64, error) {
	vals, err := c.numeric()
	if err != nil {
		return 0, err
	}
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile %v out of range [0, 1]", q)
	}

	sorted := slices.Clone(vals)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// Unique returns the distinct values in order of first appearance.
func (c *Column) Unique() []any {
	seen := make(map[any]bool)
	var out []any
	for i := range c.Len() {
		v := c.At(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ValueCounts counts occurrences of each distinct value, keyed by its string form.
func (c *Column) ValueCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range c.Strings() {
		counts[s]++
	}
	return counts
}

func (c *Column) take(idx []int) *Column {
	if c.IsNumeric() {
		vals := make([]float64, len(idx))
		for i, j := range idx {
			vals[i] = c.floats[j]
		}
		return &Column{name: c.name, floats: vals}
	}
	vals := make([]string, len(idx))
	for i, j := range idx {
		vals[i] = c.labels[j]
	}
	return &Column{name: c.name, categorical: true, labels: vals}
}

// String renders a short description, e.g. `species (150 values)`.
func (c *Column) String() string {
	return fmt.Sprintf("%s (%d values)", c.name, c.Len())
}
