package server

import (
	"math"
	"strconv"

	"github.com/itsmostafa/irisdash/internal/dataset"
)

type frameJSON struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type columnJSON struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

type chartJSON struct {
	dataset.Chart
	Points []dataset.Point `json:"points"`
}

func toFrameJSON(f *dataset.Frame) frameJSON {
	rows := f.Rows()
	for _, r := range rows {
		for k, v := range r {
			r[k] = jsonValue(v)
		}
	}
	return frameJSON{Columns: f.Columns(), Rows: rows}
}

func toChartJSON(c dataset.Chart) chartJSON {
	points, _ := c.Points()
	if points == nil {
		points = []dataset.Point{}
	}
	return chartJSON{Chart: c, Points: points}
}

// jsonValue converts an execution value into something encoding/json can
// write. Non-finite floats become strings.
func jsonValue(v any) any {
	switch v := v.(type) {
	case *dataset.Frame:
		return toFrameJSON(v)
	case *dataset.Column:
		vals := v.Values()
		for i, x := range vals {
			vals[i] = jsonValue(x)
		}
		return columnJSON{Name: v.Name(), Values: vals}
	case dataset.Chart:
		return toChartJSON(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = jsonValue(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = jsonValue(x)
		}
		return out
	}
	return v
}
