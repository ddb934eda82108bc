package sandbox

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

func init() {
	// Generated cells are written as top-level scripts: they reassign names
	// and use if/for outside functions.
	resolve.AllowGlobalReassign = true
	resolve.AllowSet = true
	resolve.AllowRecursion = true
}

// knownImport matches import lines for modules the namespace already
// provides; they are dropped before execution.
var knownImport = regexp.MustCompile(`^\s*(import\s+(pandas|altair|streamlit|math|json)(\s+as\s+\w+)?|from\s+sklearn\.datasets\s+import\s+load_iris)\s*$`)

// Starlark runs python-dialect code in a Starlark interpreter.
type Starlark struct {
	ns     *Namespace
	config Config
	iris   starlark.Value
}

// NewStarlark creates a Starlark engine over ns.
func NewStarlark(ns *Namespace, cfg Config) *Starlark {
	iris := bundleValue(ns)
	iris.Freeze()
	return &Starlark{ns: ns, config: cfg, iris: iris}
}

// Language implements Engine.
func (s *Starlark) Language() string { return "python" }

// Execute implements Engine.
func (s *Starlark) Execute(ctx context.Context, code string) (res *Result, err error) {
	start := time.Now()

	stmts, expr, ok := split(stripImports(code))
	if !ok {
		return nil, &ExecError{Stage: StageExpression, Err: ErrNoCode}
	}

	runCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var printed strings.Builder
	rec := &recorder{}
	thread := &starlark.Thread{
		Name: "cell",
		Print: func(_ *starlark.Thread, msg string) {
			printed.WriteString(msg)
			printed.WriteString("\n")
		},
	}
	if s.config.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(s.config.MaxSteps)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			thread.Cancel("execution timeout or cancelled")
		case <-done:
		}
	}()

	stage := StageStatements
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &ExecError{Stage: stage, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	env := s.predeclared(rec)
	if stmts != "" {
		globals, err := starlark.ExecFile(thread, "cell", stmts, env)
		if err != nil {
			return nil, s.fail(runCtx, StageStatements, err)
		}
		merged := make(starlark.StringDict, len(env)+len(globals))
		for name, v := range env {
			merged[name] = v
		}
		for name, v := range globals {
			merged[name] = v
		}
		env = merged
	}

	stage = StageExpression
	val, err := starlark.Eval(thread, "cell", expr, env)
	if err != nil {
		return nil, s.fail(runCtx, StageExpression, err)
	}

	return &Result{
		Value:    toGo(val),
		Repr:     truncate(val.String(), s.config.MaxOutputChars),
		Output:   truncate(printed.String(), s.config.MaxOutputChars),
		Displays: rec.all(),
		Duration: time.Since(start),
	}, nil
}

func (s *Starlark) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func (s *Starlark) fail(ctx context.Context, stage Stage, err error) error {
	if ctx.Err() != nil {
		stage = StageTimeout
	}
	return &ExecError{Stage: stage, Err: errors.WithStack(err)}
}

func (s *Starlark) predeclared(rec *recorder) starlark.StringDict {
	return starlark.StringDict{
		"df":    &frameValue{f: s.ns.Frame},
		"iris":  s.iris,
		"st":    displayModule(rec),
		"alt":   altModule,
		"math":  starlarkmath.Module,
		"json":  starlarkjson.Module,
		"sum":   starlark.NewBuiltin("sum", builtinSum),
		"round": starlark.NewBuiltin("round", builtinRound),
	}
}

func stripImports(code string) string {
	lines := strings.Split(code, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !knownImport.MatchString(l) {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func bundleValue(ns *Namespace) *starlarkstruct.Struct {
	data := make([]starlark.Value, len(ns.Bundle.Data))
	for i, row := range ns.Bundle.Data {
		data[i] = toStarlark(row)
	}
	target := make([]starlark.Value, len(ns.Bundle.Target))
	for i, t := range ns.Bundle.Target {
		target[i] = starlark.MakeInt(t)
	}
	return starlarkstruct.FromStringDict(starlark.String("iris"), starlark.StringDict{
		"feature_names": toStarlark(ns.Bundle.FeatureNames),
		"target_names":  toStarlark(ns.Bundle.TargetNames),
		"data":          starlark.NewList(data),
		"target":        starlark.NewList(target),
		"frame":         &frameValue{f: ns.Frame},
	})
}
