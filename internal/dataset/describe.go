package dataset

import (
	"fmt"
	"slices"
	"sort"
)

// Summary holds the describe() statistics of one numeric column.
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"25%"`
	Q50    float64 `json:"50%"`
	Q75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// Describe summarises every numeric column. Columns with fewer than two
// values report a zero standard deviation; empty frames yield no summaries.
func (f *Frame) Describe() []Summary {
	var out []Summary
	for _, c := range f.cols {
		if !c.IsNumeric() || c.Len() == 0 {
			continue
		}
		s := Summary{Column: c.name, Count: c.Len()}
		s.Mean, _ = c.Mean()
		s.Std, _ = c.Std()
		s.Min, _ = c.Min()
		s.Max, _ = c.Max()
		s.Q25, _ = c.Quantile(0.25)
		s.Q50, _ = c.Quantile(0.5)
		s.Q75, _ = c.Quantile(0.75)
		out = append(out, s)
	}
	return out
}

// Groups partitions a frame by the distinct values of one column.
type Groups struct {
	by     string
	keys   []string
	frames map[string]*Frame
}

// GroupBy splits the frame on column. Keys are sorted.
func (f *Frame) GroupBy(column string) (*Groups, error) {
	c, err := f.Column(column)
	if err != nil {
		return nil, err
	}

	idx := make(map[string][]int)
	for i, s := range c.Strings() {
		idx[s] = append(idx[s], i)
	}

	g := &Groups{by: column, frames: make(map[string]*Frame, len(idx))}
	for key, rows := range idx {
		g.keys = append(g.keys, key)
		g.frames[key] = f.take(rows)
	}
	sort.Strings(g.keys)
	return g, nil
}

// By returns the grouping column.
func (g *Groups) By() string { return g.by }

// Keys returns the sorted group keys.
func (g *Groups) Keys() []string { return slices.Clone(g.keys) }

// Get returns the rows of one group.
func (g *Groups) Get(key string) (*Frame, error) {
	f, ok := g.frames[key]
	if !ok {
		return nil, fmt.Errorf("group %q not found", key)
	}
	return f, nil
}

// Size counts the rows in each group.
func (g *Groups) Size() map[string]int {
	out := make(map[string]int, len(g.keys))
	for _, k := range g.keys {
		out[k] = g.frames[k].Len()
	}
	return out
}

// Count is an alias of Size.
func (g *Groups) Count() map[string]int { return g.Size() }

// Mean aggregates each numeric column per group.
func (g *Groups) Mean() map[string]map[string]float64 {
	return g.agg((*Column).Mean)
}

// Min aggregates each numeric column per group.
func (g *Groups) Min() map[string]map[string]float64 {
	return g.agg((*Column).Min)
}

// Max aggregates each numeric column per group.
func (g *Groups) Max() map[string]map[string]float64 {
	return g.agg((*Column).Max)
}

// Sum aggregates each numeric column per group.
func (g *Groups) Sum() map[string]map[string]float64 {
	return g.agg((*Column).Sum)
}

// Std aggregates each numeric column per group.
func (g *Groups) Std() map[string]map[string]float64 {
	return g.agg((*Column).Std)
}

func (g *Groups) agg(fn func(*Column) (float64, error)) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(g.keys))
	for _, k := range g.keys {
		row := make(map[string]float64)
		for _, c := range g.frames[k].cols {
			if c.name == g.by || !c.IsNumeric() {
				continue
			}
			if v, err := fn(c); err == nil {
				row[c.name] = v
			}
		}
		out[k] = row
	}
	return out
}

// DescribeFrame returns Describe as a frame: a "stat" label column followed
// by one column per numeric input column.
func (f *Frame) DescribeFrame() *Frame {
	stats := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	cols := []*Column{NewCategorical("stat", stats)}
	for _, s := range f.Describe() {
		cols = append(cols, NewNumeric(s.Column, []float64{
			float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max,
		}))
	}
	out, _ := New(cols...)
	return out
}
