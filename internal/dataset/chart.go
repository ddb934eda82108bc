package dataset

import (
	"fmt"
	"slices"
)

// Chart is a declarative scatter-style plot description. Rendering is left
// to the presentation layer; each builder method returns a modified copy.
type Chart struct {
	Data        *Frame   `json:"-"`
	Mark        string   `json:"mark"`
	Size        int      `json:"size,omitempty"`
	X           string   `json:"x"`
	Y           string   `json:"y"`
	Color       string   `json:"color,omitempty"`
	Tooltip     []string `json:"tooltip,omitempty"`
	Interactive bool     `json:"interactive"`
}

// NewChart starts a chart over f with a point mark.
func NewChart(f *Frame) Chart {
	return Chart{Data: f, Mark: "point"}
}

// Scatter is the dashboard's default plot: circles of size 60 coloured by
// species, every column in the tooltip, interactive.
func Scatter(f *Frame, x, y string) (Chart, error) {
	c := NewChart(f).MarkCircle(60).Encode(x, y, LabelColumn, f.Columns()).MakeInteractive()
	return c, c.Validate()
}

// MarkCircle switches to a circle mark of the given size.
func (c Chart) MarkCircle(size int) Chart {
	c.Mark = "circle"
	c.Size = size
	return c
}

// MarkPoint switches to a point mark.
func (c Chart) MarkPoint() Chart {
	c.Mark = "point"
	return c
}

// Encode sets the channel encodings. Empty color leaves the current one.
func (c Chart) Encode(x, y, color string, tooltip []string) Chart {
	c.X, c.Y = x, y
	if color != "" {
		c.Color = color
	}
	if tooltip != nil {
		c.Tooltip = slices.Clone(tooltip)
	}
	return c
}

// MakeInteractive enables pan and zoom.
func (c Chart) MakeInteractive() Chart {
	c.Interactive = true
	return c
}

// Validate checks that the encoded fields exist in the data.
func (c Chart) Validate() error {
	if c.Data == nil {
		return fmt.Errorf("chart has no data")
	}
	if c.X == "" || c.Y == "" {
		return fmt.Errorf("chart needs both x and y encodings")
	}
	for _, field := range append([]string{c.X, c.Y, c.Color}, c.Tooltip...) {
		if field == "" {
			continue
		}
		if _, err := c.Data.Column(field); err != nil {
			return fmt.Errorf("chart encoding: %w", err)
		}
	}
	return nil
}

// Points returns the (x, y, color) triples the chart would plot.
func (c Chart) Points() ([]Point, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	xs, _ := c.Data.Column(c.X)
	ys, _ := c.Data.Column(c.Y)
	xv, err := xs.Floats()
	if err != nil {
		return nil, err
	}
	yv, err := ys.Floats()
	if err != nil {
		return nil, err
	}

	var colors []string
	if c.Color != "" {
		cc, _ := c.Data.Column(c.Color)
		colors = cc.Strings()
	}

	pts := make([]Point, len(xv))
	for i := range xv {
		pts[i] = Point{X: xv[i], Y: yv[i]}
		if colors != nil {
			pts[i].Color = colors[i]
		}
	}
	return pts, nil
}

// Point is one plotted observation.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// String renders a one-line summary of the encoding.
func (c Chart) String() string {
	rows := 0
	if c.Data != nil {
		rows = c.Data.Len()
	}
	return fmt.Sprintf("chart(mark=%s, x=%q, y=%q, color=%q, rows=%d)", c.Mark, c.X, c.Y, c.Color, rows)
}
