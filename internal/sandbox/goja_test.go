package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsmostafa/irisdash/internal/dataset"
)

func newGoja(t *testing.T, cfg Config) *Goja {
	t.Helper()
	ns, err := NewNamespace()
	if err != nil {
		t.Fatalf("NewNamespace() error = %v", err)
	}
	return NewGoja(ns, cfg)
}

func TestGojaExecute(t *testing.T) {
	engine := newGoja(t, DefaultConfig())

	tests := []struct {
		name string
		code string
		want any
	}{
		{name: "row count", code: "len(df)", want: int64(150)},
		{name: "statements then expression", code: "x = 2\nx * 3", want: int64(6)},
		{name: "let binding", code: "let n = df.len();\nn", want: int64(150)},
		{name: "shape", code: "df.shape()[1]", want: int64(5)},
		{name: "filter", code: "df.filter('petal length (cm)', '>', 5).len()", want: int64(42)},
		{name: "species keys", code: "df.groupBy('species').keys().length", want: int64(3)},
		{name: "bundle", code: "iris.target_names[0]", want: "setosa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Execute(context.Background(), tt.code)
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", tt.code, err)
			}
			if res.Value != tt.want {
				t.Errorf("Execute(%q) = %#v, want %#v", tt.code, res.Value, tt.want)
			}
		})
	}
}

func TestGojaColumnMean(t *testing.T) {
	engine := newGoja(t, DefaultConfig())

	res, err := engine.Execute(context.Background(), "df.column('sepal length (cm)').mean()")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got, ok := res.Value.(float64)
	if !ok || got < 5.843 || got > 5.844 {
		t.Errorf("mean = %#v, want ~5.8433", res.Value)
	}
}

func TestGojaChartAndDisplays(t *testing.T) {
	engine := newGoja(t, DefaultConfig())

	code := "const c = alt.Chart(df).markCircle(60).encode('sepal length (cm)', 'sepal width (cm)', 'species', null).makeInteractive();\n" +
		"st.altair_chart(c);\n" +
		"c"
	res, err := engine.Execute(context.Background(), code)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	chart, ok := res.Value.(dataset.Chart)
	if !ok {
		t.Fatalf("Value = %#v, want dataset.Chart", res.Value)
	}
	if chart.Mark != "circle" || chart.Y != "sepal width (cm)" || !chart.Interactive {
		t.Errorf("chart = %+v", chart)
	}
	if len(res.Displays) != 1 || res.Displays[0].Kind != "altair_chart" {
		t.Errorf("Displays = %+v", res.Displays)
	}
}

func TestGojaErrors(t *testing.T) {
	engine := newGoja(t, DefaultConfig())

	tests := []struct {
		name  string
		code  string
		stage Stage
	}{
		{name: "missing name", code: "undefinedName.foo", stage: StageExpression},
		{name: "failing statement", code: "throw new Error('boom')\n1", stage: StageStatements},
		{name: "unknown column", code: "df.column('height')", stage: StageExpression},
		{name: "no require", code: "require('fs')", stage: StageExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Execute(context.Background(), tt.code)
			var execErr *ExecError
			if !errors.As(err, &execErr) {
				t.Fatalf("Execute(%q) error = %v, want *ExecError", tt.code, err)
			}
			if execErr.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q (%v)", execErr.Stage, tt.stage, err)
			}
		})
	}
}

func TestGojaNamespaceIsFresh(t *testing.T) {
	engine := newGoja(t, DefaultConfig())
	ctx := context.Background()

	if _, err := engine.Execute(ctx, "var leaked = 42\nleaked"); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if _, err := engine.Execute(ctx, "leaked"); err == nil {
		t.Error("variable from a previous execution is still visible")
	}

	writes := "iris.target[0] = 99\n" +
		"iris.feature_names[0] = 'changed'\n" +
		"iris.target_names[0] = 'changed'\n" +
		"iris.data[0][0] = -1\n" +
		"1"
	if _, err := engine.Execute(ctx, writes); err != nil {
		t.Fatalf("Execute(writes) error = %v", err)
	}

	tests := []struct {
		code string
		want any
	}{
		{code: "iris.target[0]", want: int64(0)},
		{code: "iris.feature_names[0]", want: dataset.FeatureNames[0]},
		{code: "iris.target_names[0]", want: "setosa"},
		{code: "iris.data[0][0] > 0", want: true},
	}
	for _, tt := range tests {
		res, err := engine.Execute(ctx, tt.code)
		if err != nil {
			t.Fatalf("Execute(%q) error = %v", tt.code, err)
		}
		if res.Value != tt.want {
			t.Errorf("Execute(%q) = %#v, want %#v", tt.code, res.Value, tt.want)
		}
	}
	if got := engine.ns.Bundle.Target[0]; got != 0 {
		t.Errorf("shared bundle target[0] = %d, want 0", got)
	}
}

func TestGojaTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	engine := newGoja(t, cfg)

	_, err := engine.Execute(context.Background(), "while (true) {}\n1")

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if execErr.Stage != StageTimeout {
		t.Errorf("Stage = %q, want %q", execErr.Stage, StageTimeout)
	}
}

func TestEnginesAgreeOnRowCount(t *testing.T) {
	for _, lang := range []string{"python", "javascript"} {
		t.Run(lang, func(t *testing.T) {
			engine, err := New(lang, DefaultConfig())
			if err != nil {
				t.Fatalf("New(%q) error = %v", lang, err)
			}
			if engine.Language() != lang {
				t.Errorf("Language() = %q", engine.Language())
			}
			res, err := engine.Execute(context.Background(), "len(df)")
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Value != int64(150) {
				t.Errorf("len(df) = %#v, want 150", res.Value)
			}
		})
	}

	if _, err := New("cobol", DefaultConfig()); err == nil {
		t.Error("New(cobol) expected error")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		stmts string
		expr  string
		ok    bool
	}{
		{name: "single line", code: "len(df)", expr: "len(df)", ok: true},
		{name: "surrounding blanks", code: "\n  len(df)  \n\n", expr: "len(df)", ok: true},
		{name: "multi line", code: "x = 2\n\nx * 3\n", stmts: "x = 2", expr: "x * 3", ok: true},
		{name: "indentation kept", code: "for i in []:\n    pass\nx", stmts: "for i in []:\n    pass", expr: "x", ok: true},
		{name: "blank", code: " \n\t\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, expr, ok := split(tt.code)
			if stmts != tt.stmts || expr != tt.expr || ok != tt.ok {
				t.Errorf("split(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.code, stmts, expr, ok, tt.stmts, tt.expr, tt.ok)
			}
		})
	}
}
