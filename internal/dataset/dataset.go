// Package dataset holds the Iris data the dashboard and the assistant work on.
// The frame is loaded once from an embedded CSV and never mutated afterwards;
// every operation returns a new Frame or a plain Go value.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
)

//go:embed iris.csv
var irisCSV []byte

// LabelColumn is the categorical column holding the species name.
const LabelColumn = "species"

var (
	// FeatureNames are the four numeric Iris measurements, in source order.
	FeatureNames = []string{
		"sepal length (cm)",
		"sepal width (cm)",
		"petal length (cm)",
		"petal width (cm)",
	}

	// TargetNames are the species labels, indexed by target code.
	TargetNames = []string{"setosa", "versicolor", "virginica"}
)

var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrNotNumeric     = errors.New("column is not numeric")
	ErrEmpty          = errors.New("no values")
	ErrLengthMismatch = errors.New("column lengths differ")
)

// Iris returns the shared Iris frame. The CSV is parsed on first use only.
var Iris = sync.OnceValues(func() (*Frame, error) {
	return ParseCSV(irisCSV)
})

// ParseCSV builds a frame from CSV bytes with a header row. Columns whose
// every value parses as a float become numeric; the rest are categorical.
func ParseCSV(data []byte) (*Frame, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header, rows := records[0], records[1:]
	cols := make([]*Column, len(header))
	for j, name := range header {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j >= len(row) {
				return nil, fmt.Errorf("row %d: missing field %q", i+2, name)
			}
			raw[i] = row[j]
		}
		cols[j] = columnFromStrings(name, raw)
	}

	return New(cols...)
}

func columnFromStrings(name string, raw []string) *Column {
	floats := make([]float64, len(raw))
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return NewCategorical(name, raw)
		}
		floats[i] = f
	}
	return NewNumeric(name, floats)
}

// Bundle mirrors the raw dataset object: feature matrix, target codes and
// the names for both.
type Bundle struct {
	FeatureNames []string
	TargetNames  []string
	Data         [][]float64
	Target       []int
}

// Clone returns a deep copy of b.
func (b Bundle) Clone() Bundle {
	data := make([][]float64, len(b.Data))
	for i, row := range b.Data {
		data[i] = slices.Clone(row)
	}
	return Bundle{
		FeatureNames: slices.Clone(b.FeatureNames),
		TargetNames:  slices.Clone(b.TargetNames),
		Data:         data,
		Target:       slices.Clone(b.Target),
	}
}

// NewBundle derives the raw bundle from an Iris-shaped frame.
func NewBundle(f *Frame) (Bundle, error) {
	b := Bundle{
		FeatureNames: append([]string(nil), FeatureNames...),
		TargetNames:  append([]string(nil), TargetNames...),
		Data:         make([][]float64, f.Len()),
		Target:       make([]int, f.Len()),
	}

	features := make([]*Column, len(FeatureNames))
	for j, name := range FeatureNames {
		col, err := f.Column(name)
		if err != nil {
			return Bundle{}, err
		}
		if !col.IsNumeric() {
			return Bundle{}, fmt.Errorf("%q: %w", name, ErrNotNumeric)
		}
		features[j] = col
	}
	labels, err := f.Column(LabelColumn)
	if err != nil {
		return Bundle{}, err
	}

	codes := make(map[string]int, len(TargetNames))
	for i, name := range TargetNames {
		codes[name] = i
	}

	for i := range f.Len() {
		row := make([]float64, len(features))
		for j, col := range features {
			row[j] = col.floats[i]
		}
		b.Data[i] = row

		code, ok := codes[fmt.Sprint(labels.At(i))]
		if !ok {
			return Bundle{}, fmt.Errorf("row %d: unknown species %v", i, labels.At(i))
		}
		b.Target[i] = code
	}

	return b, nil
}
