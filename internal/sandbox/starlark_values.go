package sandbox

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/itsmostafa/irisdash/internal/dataset"
)

// method is the signature of the bound methods exposed on dataset values.
type method func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

func attr(methods map[string]method, name string) (starlark.Value, error) {
	m, ok := methods[name]
	if !ok {
		return nil, nil
	}
	return starlark.NewBuiltin(name, m), nil
}

func errUnhashable(v starlark.Value) error {
	return fmt.Errorf("unhashable type: %s", v.Type())
}

func names(methods map[string]method, extra ...string) []string {
	out := append([]string(nil), extra...)
	for name := range methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ---- DataFrame ----

type frameValue struct {
	f *dataset.Frame
}

var (
	_ starlark.HasAttrs = (*frameValue)(nil)
	_ starlark.Mapping  = (*frameValue)(nil)
	_ starlark.Sequence = (*frameValue)(nil)
)

func (v *frameValue) String() string        { return v.f.String() }
func (v *frameValue) Type() string          { return "DataFrame" }
func (v *frameValue) Freeze()               {}
func (v *frameValue) Truth() starlark.Bool  { return v.f.Len() > 0 }
func (v *frameValue) Hash() (uint32, error) { return 0, errUnhashable(v) }
func (v *frameValue) Len() int              { return v.f.Len() }

func (v *frameValue) Iterate() starlark.Iterator {
	return toStarlark(v.f.Columns()).(*starlark.List).Iterate()
}

// Get implements df["col"], df[["a", "b"]] and df[mask].
func (v *frameValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	switch k := k.(type) {
	case starlark.String:
		c, err := v.f.Column(string(k))
		if err != nil {
			return nil, false, err
		}
		return &columnValue{c: c}, true, nil
	case *starlark.List, starlark.Tuple:
		cols, err := stringList(k)
		if err != nil {
			return nil, false, err
		}
		f, err := v.f.Select(cols...)
		if err != nil {
			return nil, false, err
		}
		return &frameValue{f: f}, true, nil
	case *maskValue:
		f, err := v.f.Where(k.keep)
		if err != nil {
			return nil, false, err
		}
		return &frameValue{f: f}, true, nil
	}
	return nil, false, fmt.Errorf("DataFrame index must be a column name, a list of names or a mask, not %s", k.Type())
}

func (v *frameValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "shape":
		s := v.f.Shape()
		return starlark.Tuple{starlark.MakeInt(s[0]), starlark.MakeInt(s[1])}, nil
	case "columns":
		return toStarlark(v.f.Columns()), nil
	case "size":
		s := v.f.Shape()
		return starlark.MakeInt(s[0] * s[1]), nil
	}
	if m, ok := v.methods()[name]; ok {
		return starlark.NewBuiltin(name, m), nil
	}
	// pandas-style attribute access to columns, e.g. df.species
	if c, err := v.f.Column(name); err == nil {
		return &columnValue{c: c}, nil
	}
	return nil, nil
}

func (v *frameValue) AttrNames() []string {
	return names(v.methods(), "shape", "columns", "size")
}

func (v *frameValue) methods() map[string]method {
	f := v.f
	return map[string]method{
		"head": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			n := 5
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
				return nil, err
			}
			return &frameValue{f: f.Head(n)}, nil
		},
		"tail": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			n := 5
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
				return nil, err
			}
			return &frameValue{f: f.Tail(n)}, nil
		},
		"describe": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return &frameValue{f: f.DescribeFrame()}, nil
		},
		"mean": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var numericOnly bool
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "numeric_only?", &numericOnly); err != nil {
				return nil, err
			}
			return toStarlark(f.Mean()), nil
		},
		"groupby": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var by string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "by", &by); err != nil {
				return nil, err
			}
			g, err := f.GroupBy(by)
			if err != nil {
				return nil, err
			}
			return &groupsValue{g: g}, nil
		},
		"filter": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var column, op string
			var value starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &column, "op", &op, "value", &value); err != nil {
				return nil, err
			}
			out, err := f.Filter(column, op, toGo(value))
			if err != nil {
				return nil, err
			}
			return &frameValue{f: out}, nil
		},
		"sort_values": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var by string
			ascending := true
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "by", &by, "ascending?", &ascending); err != nil {
				return nil, err
			}
			out, err := f.SortBy(by, ascending)
			if err != nil {
				return nil, err
			}
			return &frameValue{f: out}, nil
		},
		"corr": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var a, c string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a?", &a, "b?", &c); err != nil {
				return nil, err
			}
			if a == "" && c == "" {
				m, err := f.CorrMatrix()
				if err != nil {
					return nil, err
				}
				return &frameValue{f: m}, nil
			}
			r, err := f.Corr(a, c)
			if err != nil {
				return nil, err
			}
			return starlark.Float(r), nil
		},
		"assign": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if len(args) > 0 {
				return nil, fmt.Errorf("%s: only keyword arguments are accepted", b.Name())
			}
			out := f
			for _, kv := range kwargs {
				name := string(kv[0].(starlark.String))
				col, err := columnFrom(name, kv[1], out.Len())
				if err != nil {
					return nil, fmt.Errorf("%s: %w", b.Name(), err)
				}
				if out, err = out.WithColumn(col); err != nil {
					return nil, err
				}
			}
			return &frameValue{f: out}, nil
		},
		"to_dict": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			orient := "records"
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "orient?", &orient); err != nil {
				return nil, err
			}
			if orient != "records" {
				return nil, fmt.Errorf("%s: only orient=\"records\" is supported", b.Name())
			}
			rows := f.Rows()
			out := make([]any, len(rows))
			for i, r := range rows {
				out[i] = r
			}
			return toStarlark(out), nil
		},
	}
}

// columnFrom converts an assign() value into a column of length n.
func columnFrom(name string, v starlark.Value, n int) (*dataset.Column, error) {
	switch v := v.(type) {
	case *columnValue:
		vals, err := v.c.Floats()
		if err != nil {
			return dataset.NewCategorical(name, v.c.Strings()), nil
		}
		return dataset.NewNumeric(name, vals), nil
	case starlark.Int, starlark.Float:
		x, _ := starlark.AsFloat(v)
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = x
		}
		return dataset.NewNumeric(name, vals), nil
	case starlark.String:
		vals := make([]string, n)
		for i := range vals {
			vals[i] = string(v)
		}
		return dataset.NewCategorical(name, vals), nil
	}
	return nil, fmt.Errorf("cannot build column %q from %s", name, v.Type())
}

// ---- Series ----

type columnValue struct {
	c *dataset.Column
}

var (
	_ starlark.HasAttrs  = (*columnValue)(nil)
	_ starlark.Indexable = (*columnValue)(nil)
	_ starlark.Sequence  = (*columnValue)(nil)
	_ starlark.HasBinary = (*columnValue)(nil)
)

func (v *columnValue) String() string        { return seriesRepr(v.c) }
func (v *columnValue) Type() string          { return "Series" }
func (v *columnValue) Freeze()               {}
func (v *columnValue) Truth() starlark.Bool  { return v.c.Len() > 0 }
func (v *columnValue) Hash() (uint32, error) { return 0, errUnhashable(v) }
func (v *columnValue) Len() int              { return v.c.Len() }
func (v *columnValue) Index(i int) starlark.Value {
	return toStarlark(v.c.At(i))
}

func (v *columnValue) Iterate() starlark.Iterator {
	return toStarlark(v.c.Values()).(*starlark.List).Iterate()
}

// Binary implements element-wise arithmetic with numbers and other columns.
func (v *columnValue) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	var apply func(a, b float64) float64
	switch op {
	case syntax.PLUS:
		apply = func(a, b float64) float64 { return a + b }
	case syntax.MINUS:
		apply = func(a, b float64) float64 { return a - b }
	case syntax.STAR:
		apply = func(a, b float64) float64 { return a * b }
	case syntax.SLASH:
		apply = func(a, b float64) float64 { return a / b }
	default:
		return nil, nil
	}

	left, err := v.c.Floats()
	if err != nil {
		return nil, err
	}
	right := make([]float64, len(left))
	switch y := y.(type) {
	case *columnValue:
		other, err := y.c.Floats()
		if err != nil {
			return nil, err
		}
		if len(other) != len(left) {
			return nil, fmt.Errorf("series lengths differ: %d and %d", len(left), len(other))
		}
		right = other
	case starlark.Int, starlark.Float:
		x, _ := starlark.AsFloat(y)
		for i := range right {
			right[i] = x
		}
	default:
		return nil, nil
	}

	out := make([]float64, len(left))
	for i := range left {
		if side == starlark.Left {
			out[i] = apply(left[i], right[i])
		} else {
			out[i] = apply(right[i], left[i])
		}
	}
	return &columnValue{c: dataset.NewNumeric(v.c.Name(), out)}, nil
}

func (v *columnValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(v.c.Name()), nil
	case "dtype":
		if v.c.IsNumeric() {
			return starlark.String("float64"), nil
		}
		return starlark.String("category"), nil
	case "values":
		return toStarlark(v.c.Values()), nil
	}
	return attr(v.methods(), name)
}

func (v *columnValue) AttrNames() []string {
	return names(v.methods(), "name", "dtype", "values")
}

func (v *columnValue) methods() map[string]method {
	c := v.c
	stat := func(fn func() (float64, error)) method {
		return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			x, err := fn()
			if err != nil {
				return nil, err
			}
			return starlark.Float(x), nil
		}
	}
	compare := func(op string) method {
		return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var value starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "other", &value); err != nil {
				return nil, err
			}
			return maskFor(c, op, toGo(value))
		}
	}

	return map[string]method{
		"mean":   stat(c.Mean),
		"std":    stat(c.Std),
		"min":    stat(c.Min),
		"max":    stat(c.Max),
		"sum":    stat(c.Sum),
		"median": stat(c.Median),
		"quantile": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var qv starlark.Value = starlark.Float(0.5)
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "q?", &qv); err != nil {
				return nil, err
			}
			q, ok := starlark.AsFloat(qv)
			if !ok {
				return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), qv.Type())
			}
			x, err := c.Quantile(q)
			if err != nil {
				return nil, err
			}
			return starlark.Float(x), nil
		},
		"count": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return starlark.MakeInt(c.Count()), nil
		},
		"unique": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return toStarlark(c.Unique()), nil
		},
		"nunique": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return starlark.MakeInt(len(c.Unique())), nil
		},
		"value_counts": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return toStarlark(c.ValueCounts()), nil
		},
		"tolist": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return toStarlark(c.Values()), nil
		},
		"isin": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var values starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "values", &values); err != nil {
				return nil, err
			}
			want, err := stringList(values)
			if err != nil {
				return nil, err
			}
			strs := c.Strings()
			keep := make([]bool, len(strs))
			for i, s := range strs {
				keep[i] = slices.Contains(want, s)
			}
			return &maskValue{keep: keep}, nil
		},
		"eq": compare("=="),
		"ne": compare("!="),
		"lt": compare("<"),
		"le": compare("<="),
		"gt": compare(">"),
		"ge": compare(">="),
	}
}

func maskFor(c *dataset.Column, op string, value any) (starlark.Value, error) {
	keep := make([]bool, c.Len())
	for i := range keep {
		ok, err := compareValue(c.At(i), op, value)
		if err != nil {
			return nil, err
		}
		keep[i] = ok
	}
	return &maskValue{keep: keep}, nil
}

func compareValue(a any, op string, b any) (bool, error) {
	if af, ok := a.(float64); ok {
		var bf float64
		switch b := b.(type) {
		case int64:
			bf = float64(b)
		case float64:
			bf = b
		default:
			return false, fmt.Errorf("cannot compare number with %T", b)
		}
		switch op {
		case "==":
			return af == bf, nil
		case "!=":
			return af != bf, nil
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		}
		return false, fmt.Errorf("unknown operator %q", op)
	}

	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch op {
	case "==":
		return as == bs, nil
	case "!=":
		return as != bs, nil
	}
	return false, fmt.Errorf("operator %q not supported on categorical values", op)
}

// ---- boolean mask ----

type maskValue struct {
	keep []bool
}

var (
	_ starlark.HasBinary = (*maskValue)(nil)
	_ starlark.HasUnary  = (*maskValue)(nil)
	_ starlark.HasAttrs  = (*maskValue)(nil)
)

func (m *maskValue) String() string {
	return fmt.Sprintf("mask(%d of %d rows)", m.count(), len(m.keep))
}

func (m *maskValue) Type() string          { return "mask" }
func (m *maskValue) Freeze()               {}
func (m *maskValue) Truth() starlark.Bool  { return m.count() > 0 }
func (m *maskValue) Hash() (uint32, error) { return 0, errUnhashable(m) }
func (m *maskValue) Len() int              { return len(m.keep) }

func (m *maskValue) count() int {
	n := 0
	for _, k := range m.keep {
		if k {
			n++
		}
	}
	return n
}

func (m *maskValue) Binary(op syntax.Token, y starlark.Value, _ starlark.Side) (starlark.Value, error) {
	other, ok := y.(*maskValue)
	if !ok || len(other.keep) != len(m.keep) {
		return nil, nil
	}
	out := make([]bool, len(m.keep))
	for i := range out {
		switch op {
		case syntax.AMP:
			out[i] = m.keep[i] && other.keep[i]
		case syntax.PIPE:
			out[i] = m.keep[i] || other.keep[i]
		default:
			return nil, nil
		}
	}
	return &maskValue{keep: out}, nil
}

func (m *maskValue) Unary(op syntax.Token) (starlark.Value, error) {
	if op != syntax.TILDE {
		return nil, nil
	}
	out := make([]bool, len(m.keep))
	for i, k := range m.keep {
		out[i] = !k
	}
	return &maskValue{keep: out}, nil
}

func (m *maskValue) Attr(name string) (starlark.Value, error) {
	if name != "sum" {
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		return starlark.MakeInt(m.count()), nil
	}), nil
}

func (m *maskValue) AttrNames() []string { return []string{"sum"} }

// ---- GroupBy ----

type groupsValue struct {
	g *dataset.Groups
}

var (
	_ starlark.HasAttrs = (*groupsValue)(nil)
	_ starlark.Mapping  = (*groupsValue)(nil)
)

func (v *groupsValue) String() string {
	return fmt.Sprintf("DataFrameGroupBy(by=%q, groups=%v)", v.g.By(), v.g.Keys())
}

func (v *groupsValue) Type() string          { return "DataFrameGroupBy" }
func (v *groupsValue) Freeze()               {}
func (v *groupsValue) Truth() starlark.Bool  { return len(v.g.Keys()) > 0 }
func (v *groupsValue) Hash() (uint32, error) { return 0, errUnhashable(v) }

// Get implements groups["col"], selecting one column per group.
func (v *groupsValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("group column must be a string, not %s", k.Type())
	}
	if keys := v.g.Keys(); len(keys) > 0 {
		f, _ := v.g.Get(keys[0])
		if _, err := f.Column(name); err != nil {
			return nil, false, err
		}
	}
	return &groupColumnValue{g: v.g, column: name}, true, nil
}

func (v *groupsValue) Attr(name string) (starlark.Value, error) {
	return attr(v.methods(), name)
}

func (v *groupsValue) AttrNames() []string { return names(v.methods()) }

func (v *groupsValue) methods() map[string]method {
	g := v.g
	agg := func(fn func() map[string]map[string]float64) method {
		return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			f, err := aggFrame(g, fn())
			if err != nil {
				return nil, err
			}
			return &frameValue{f: f}, nil
		}
	}
	sizes := func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		return toStarlark(g.Size()), nil
	}

	return map[string]method{
		"mean":  agg(g.Mean),
		"min":   agg(g.Min),
		"max":   agg(g.Max),
		"sum":   agg(g.Sum),
		"std":   agg(g.Std),
		"size":  sizes,
		"count": sizes,
		"keys": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return toStarlark(g.Keys()), nil
		},
		"get_group": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &key); err != nil {
				return nil, err
			}
			f, err := g.Get(key)
			if err != nil {
				return nil, err
			}
			return &frameValue{f: f}, nil
		},
	}
}

// aggFrame lays a per-group aggregate out as a frame: one row per group key.
func aggFrame(g *dataset.Groups, agg map[string]map[string]float64) (*dataset.Frame, error) {
	keys := g.Keys()
	cols := []*dataset.Column{dataset.NewCategorical(g.By(), keys)}
	if len(keys) == 0 {
		return dataset.New(cols...)
	}
	first, _ := g.Get(keys[0])
	for _, name := range first.NumericColumns() {
		if name == g.By() {
			continue
		}
		vals := make([]float64, len(keys))
		for i, k := range keys {
			x, ok := agg[k][name]
			if !ok {
				x = math.NaN()
			}
			vals[i] = x
		}
		cols = append(cols, dataset.NewNumeric(name, vals))
	}
	return dataset.New(cols...)
}

type groupColumnValue struct {
	g      *dataset.Groups
	column string
}

var _ starlark.HasAttrs = (*groupColumnValue)(nil)

func (v *groupColumnValue) String() string {
	return fmt.Sprintf("SeriesGroupBy(%q by %q)", v.column, v.g.By())
}

func (v *groupColumnValue) Type() string          { return "SeriesGroupBy" }
func (v *groupColumnValue) Freeze()               {}
func (v *groupColumnValue) Truth() starlark.Bool  { return true }
func (v *groupColumnValue) Hash() (uint32, error) { return 0, errUnhashable(v) }

func (v *groupColumnValue) Attr(name string) (starlark.Value, error) {
	return attr(v.methods(), name)
}

func (v *groupColumnValue) AttrNames() []string { return names(v.methods()) }

func (v *groupColumnValue) methods() map[string]method {
	per := func(fn func(*dataset.Column) (float64, error)) method {
		return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			out := make(map[string]float64)
			for _, key := range v.g.Keys() {
				f, _ := v.g.Get(key)
				c, err := f.Column(v.column)
				if err != nil {
					return nil, err
				}
				x, err := fn(c)
				if err != nil {
					return nil, err
				}
				out[key] = x
			}
			return toStarlark(out), nil
		}
	}
	count := func(c *dataset.Column) (float64, error) { return float64(c.Count()), nil }

	return map[string]method{
		"mean":   per((*dataset.Column).Mean),
		"min":    per((*dataset.Column).Min),
		"max":    per((*dataset.Column).Max),
		"sum":    per((*dataset.Column).Sum),
		"std":    per((*dataset.Column).Std),
		"median": per((*dataset.Column).Median),
		"count":  per(count),
	}
}

// ---- altair-style charts ----

type chartValue struct {
	c dataset.Chart
}

var _ starlark.HasAttrs = (*chartValue)(nil)

func (v *chartValue) String() string        { return v.c.String() }
func (v *chartValue) Type() string          { return "Chart" }
func (v *chartValue) Freeze()               {}
func (v *chartValue) Truth() starlark.Bool  { return true }
func (v *chartValue) Hash() (uint32, error) { return 0, errUnhashable(v) }

func (v *chartValue) Attr(name string) (starlark.Value, error) {
	return attr(v.methods(), name)
}

func (v *chartValue) AttrNames() []string { return names(v.methods()) }

func (v *chartValue) methods() map[string]method {
	c := v.c
	return map[string]method{
		"mark_circle": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			size := 30
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "size?", &size); err != nil {
				return nil, err
			}
			return &chartValue{c: c.MarkCircle(size)}, nil
		},
		"mark_point": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var size int
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "size?", &size); err != nil {
				return nil, err
			}
			out := c.MarkPoint()
			out.Size = size
			return &chartValue{c: out}, nil
		},
		"encode": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var x, y, color string
			var tooltip starlark.Value = starlark.None
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x?", &x, "y?", &y, "color?", &color, "tooltip?", &tooltip); err != nil {
				return nil, err
			}
			if x == "" {
				x = c.X
			}
			if y == "" {
				y = c.Y
			}
			var tips []string
			switch t := tooltip.(type) {
			case starlark.NoneType:
			case starlark.String:
				tips = []string{string(t)}
			default:
				var err error
				if tips, err = stringList(t); err != nil {
					return nil, fmt.Errorf("%s: tooltip: %w", b.Name(), err)
				}
			}
			out := c.Encode(x, y, color, tips)
			if err := out.Validate(); err != nil {
				return nil, err
			}
			return &chartValue{c: out}, nil
		},
		"interactive": func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
				return nil, err
			}
			return &chartValue{c: c.MakeInteractive()}, nil
		},
		"properties": func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			return &chartValue{c: c}, nil
		},
	}
}

var altModule = &starlarkstruct.Module{
	Name: "alt",
	Members: starlark.StringDict{
		"Chart": starlark.NewBuiltin("Chart", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var data starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "data", &data); err != nil {
				return nil, err
			}
			fv, ok := data.(*frameValue)
			if !ok {
				return nil, fmt.Errorf("%s: data must be a DataFrame, not %s", b.Name(), data.Type())
			}
			return &chartValue{c: dataset.NewChart(fv.f)}, nil
		}),
	},
}

// ---- st display helper ----

func displayModule(rec *recorder) *starlarkstruct.Module {
	members := make(starlark.StringDict, len(displayKinds))
	for _, kind := range displayKinds {
		members[kind] = starlark.NewBuiltin(kind, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			vals := make([]any, 0, len(args)+len(kwargs))
			for _, a := range args {
				vals = append(vals, toGo(a))
			}
			for _, kv := range kwargs {
				vals = append(vals, map[string]any{string(kv[0].(starlark.String)): toGo(kv[1])})
			}
			switch len(vals) {
			case 0:
				return nil, fmt.Errorf("st.%s: missing argument", b.Name())
			case 1:
				rec.add(b.Name(), vals[0])
			default:
				rec.add(b.Name(), vals)
			}
			return starlark.None, nil
		})
	}
	return &starlarkstruct.Module{Name: "st", Members: members}
}

// ---- helpers ----

func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	var start starlark.Value = starlark.MakeInt(0)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "iterable", &iterable, "start?", &start); err != nil {
		return nil, err
	}
	it := iterable.Iterate()
	defer it.Done()

	acc := start
	var x starlark.Value
	for it.Next(&x) {
		var err error
		if acc, err = starlark.Binary(syntax.PLUS, acc, x); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	return acc, nil
}

func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	var ndigits starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "number", &x, "ndigits?", &ndigits); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(x)
	if !ok {
		return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), x.Type())
	}
	if ndigits == starlark.None {
		return starlark.MakeInt64(int64(math.RoundToEven(f))), nil
	}
	n, err := starlark.AsInt32(ndigits)
	if err != nil {
		return nil, fmt.Errorf("%s: ndigits: %w", b.Name(), err)
	}
	p := math.Pow(10, float64(n))
	return starlark.Float(math.Round(f*p) / p), nil
}

func stringList(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("want a list of strings, got %s", v.Type())
	}
	it := iterable.Iterate()
	defer it.Done()

	var out []string
	var x starlark.Value
	for it.Next(&x) {
		s, ok := starlark.AsString(x)
		if !ok {
			return nil, fmt.Errorf("want a list of strings, got element %s", x.Type())
		}
		out = append(out, s)
	}
	return out, nil
}

func seriesRepr(c *dataset.Column) string {
	const preview = 10

	vals := c.Strings()
	shown := vals[:min(preview, len(vals))]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Series(name=%q, len=%d): [%s", c.Name(), len(vals), strings.Join(shown, ", "))
	if len(vals) > preview {
		sb.WriteString(", ...")
	}
	sb.WriteString("]")
	return sb.String()
}

// toStarlark converts plain Go values and dataset types into Starlark values.
func toStarlark(v any) starlark.Value {
	switch v := v.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return v
	case bool:
		return starlark.Bool(v)
	case int:
		return starlark.MakeInt(v)
	case int64:
		return starlark.MakeInt64(v)
	case float64:
		return starlark.Float(v)
	case string:
		return starlark.String(v)
	case []string:
		out := make([]starlark.Value, len(v))
		for i, s := range v {
			out[i] = starlark.String(s)
		}
		return starlark.NewList(out)
	case []float64:
		out := make([]starlark.Value, len(v))
		for i, f := range v {
			out[i] = starlark.Float(f)
		}
		return starlark.NewList(out)
	case []any:
		out := make([]starlark.Value, len(v))
		for i, x := range v {
			out[i] = toStarlark(x)
		}
		return starlark.NewList(out)
	case map[string]float64:
		return dictOf(v)
	case map[string]int:
		return dictOf(v)
	case map[string]any:
		return dictOf(v)
	case *dataset.Frame:
		return &frameValue{f: v}
	case *dataset.Column:
		return &columnValue{c: v}
	case dataset.Chart:
		return &chartValue{c: v}
	}
	return starlark.String(fmt.Sprint(v))
}

func dictOf[V any](m map[string]V) *starlark.Dict {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := starlark.NewDict(len(m))
	for _, k := range keys {
		_ = d.SetKey(starlark.String(k), toStarlark(m[k]))
	}
	return d
}

// toGo converts a Starlark value into the Go value handed to presentation.
func toGo(v starlark.Value) any {
	switch v := v.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case starlark.String:
		return string(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = toGo(v.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = toGo(x)
		}
		return out
	case *starlark.Set:
		out := make([]any, 0, v.Len())
		it := v.Iterate()
		defer it.Done()
		var x starlark.Value
		for it.Next(&x) {
			out = append(out, toGo(x))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, kv := range v.Items() {
			key, ok := starlark.AsString(kv[0])
			if !ok {
				key = kv[0].String()
			}
			out[key] = toGo(kv[1])
		}
		return out
	case *frameValue:
		return v.f
	case *columnValue:
		return v.c
	case *chartValue:
		return v.c
	case *groupsValue:
		return v.g
	case *maskValue:
		return append([]bool(nil), v.keep...)
	case *starlarkstruct.Struct:
		d := make(starlark.StringDict)
		v.ToStringDict(d)
		out := make(map[string]any, len(d))
		for k, x := range d {
			out[k] = toGo(x)
		}
		return out
	}
	return v.String()
}
