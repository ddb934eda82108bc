package dataset

import (
	"fmt"
	"slices"
)

// ViewOptions are the dashboard's sidebar selections.
type ViewOptions struct {
	// Species to keep. Empty keeps every species.
	Species []string
	// X and Y are feature names. Empty picks the first and second feature.
	X string
	Y string
}

// View is the dashboard body: the filtered rows, a scatter plot over them
// and their summary statistics.
type View struct {
	Species  []string
	Filtered *Frame
	Chart    Chart
	Summary  *Frame
}

// NewView filters f by species and builds the scatter plot and summary for
// the selected axes.
func NewView(f *Frame, opts ViewOptions) (*View, error) {
	species := opts.Species
	if len(species) == 0 {
		species = slices.Clone(TargetNames)
	}
	for _, s := range species {
		if !slices.Contains(TargetNames, s) {
			return nil, fmt.Errorf("unknown species %q", s)
		}
	}

	x, y := opts.X, opts.Y
	if x == "" {
		x = FeatureNames[0]
	}
	if y == "" {
		y = FeatureNames[1]
	}
	for _, axis := range []string{x, y} {
		if !slices.Contains(FeatureNames, axis) {
			return nil, fmt.Errorf("axis %q: %w", axis, ErrUnknownColumn)
		}
	}

	filtered, err := f.IsIn(LabelColumn, species)
	if err != nil {
		return nil, fmt.Errorf("failed to filter species: %w", err)
	}

	chart := NewChart(filtered).
		MarkCircle(60).
		Encode(x, y, LabelColumn, append(slices.Clone(FeatureNames), LabelColumn)).
		MakeInteractive()
	if err := chart.Validate(); err != nil {
		return nil, err
	}

	return &View{
		Species:  species,
		Filtered: filtered,
		Chart:    chart,
		Summary:  filtered.DescribeFrame(),
	}, nil
}
