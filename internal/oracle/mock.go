package oracle

import (
	"context"
	"strings"
)

// snippet is one canned code reply, keyed by question keywords.
type snippet struct {
	keywords   []string
	python     string
	javascript string
}

var snippets = []snippet{
	{
		keywords:   []string{"how many", "count", "rows"},
		python:     "len(df)",
		javascript: "len(df)",
	},
	{
		keywords:   []string{"average", "mean"},
		python:     "df.groupby('species')['petal length (cm)'].mean()",
		javascript: "df.groupBy('species').mean()",
	},
	{
		keywords:   []string{"correlat"},
		python:     "df.corr('petal length (cm)', 'petal width (cm)')",
		javascript: "df.corr('petal length (cm)', 'petal width (cm)')",
	},
	{
		keywords:   []string{"plot", "chart", "scatter"},
		python:     "alt.Chart(df).mark_circle(size=60).encode(x='sepal length (cm)', y='sepal width (cm)', color='species').interactive()",
		javascript: "alt.Chart(df).markCircle(60).encode('sepal length (cm)', 'sepal width (cm)', 'species', null).makeInteractive()",
	},
	{
		keywords:   []string{"describe", "summary", "statistic"},
		python:     "df.describe()",
		javascript: "df.describeFrame()",
	},
}

// mockProse answers questions no snippet matches.
const mockProse = "The Iris dataset has 150 flowers from three species (setosa, versicolor and virginica), " +
	"each measured by sepal length, sepal width, petal length and petal width in centimetres. " +
	"Ask for a count, a mean, a correlation, a plot or a summary to see generated code."

// NewMock returns an offline oracle that answers from keywords in the last
// user message, replying with a fenced block in lang where one applies.
func NewMock(lang string) Oracle {
	if lang == "" {
		lang = "python"
	}
	return Func(func(ctx context.Context, req Request) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", &Error{Op: "generate", Err: err}
		}
		q := strings.ToLower(req.LastUserText())
		for _, s := range snippets {
			for _, k := range s.keywords {
				if !strings.Contains(q, k) {
					continue
				}
				code := s.python
				if lang == "javascript" {
					code = s.javascript
				}
				return "```" + lang + "\n" + code + "\n```", nil
			}
		}
		return mockProse, nil
	})
}
