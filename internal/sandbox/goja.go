package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/itsmostafa/irisdash/internal/dataset"
)

// Goja runs JavaScript code in a goja runtime. Dataset values are the Go
// objects themselves, with methods reachable under lower-camel names
// (df.column("species").unique()).
type Goja struct {
	ns     *Namespace
	config Config
}

// NewGoja creates a goja engine over ns.
func NewGoja(ns *Namespace, cfg Config) *Goja {
	return &Goja{ns: ns, config: cfg}
}

// Language implements Engine.
func (g *Goja) Language() string { return "javascript" }

// Execute implements Engine.
func (g *Goja) Execute(ctx context.Context, code string) (res *Result, err error) {
	start := time.Now()

	stmts, expr, ok := split(code)
	if !ok {
		return nil, &ExecError{Stage: StageExpression, Err: ErrNoCode}
	}

	// A new runtime per execution keeps executions isolated.
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	var runCtx context.Context
	var cancel context.CancelFunc
	if g.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			vm.Interrupt("execution timeout or cancelled")
		case <-done:
		}
	}()

	var printed strings.Builder
	rec := &recorder{}
	if err := g.setupEnvironment(vm, &printed, rec); err != nil {
		return nil, &ExecError{Stage: StageSetup, Err: err}
	}

	stage := StageStatements
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &ExecError{Stage: stage, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	if stmts != "" {
		if _, err := vm.RunString(stmts); err != nil {
			return nil, g.fail(StageStatements, err)
		}
	}

	stage = StageExpression
	val, err := vm.RunString(expr)
	if err != nil {
		return nil, g.fail(StageExpression, err)
	}

	return &Result{
		Value:    exportValue(val),
		Repr:     truncate(formatValue(val), g.config.MaxOutputChars),
		Output:   truncate(printed.String(), g.config.MaxOutputChars),
		Displays: rec.all(),
		Duration: time.Since(start),
	}, nil
}

func (g *Goja) fail(stage Stage, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &ExecError{Stage: StageTimeout, Err: fmt.Errorf("execution interrupted: %v", interrupted.Value())}
	}
	return &ExecError{Stage: stage, Err: errors.WithStack(err)}
}

// setupEnvironment binds the namespace into vm.
func (g *Goja) setupEnvironment(vm *goja.Runtime, printed *strings.Builder, rec *recorder) error {
	if err := vm.Set("df", g.ns.Frame); err != nil {
		return fmt.Errorf("failed to set df: %w", err)
	}

	// goja wraps slices by reference; scripts get their own copy.
	bundle := g.ns.Bundle.Clone()
	iris := vm.NewObject()
	for name, v := range map[string]any{
		"feature_names": bundle.FeatureNames,
		"target_names":  bundle.TargetNames,
		"data":          bundle.Data,
		"target":        bundle.Target,
		"frame":         g.ns.Frame,
	} {
		if err := iris.Set(name, v); err != nil {
			return fmt.Errorf("failed to set iris.%s: %w", name, err)
		}
	}
	if err := vm.Set("iris", iris); err != nil {
		return fmt.Errorf("failed to set iris: %w", err)
	}

	printFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		printed.WriteString(strings.Join(args, " "))
		printed.WriteString("\n")
		return goja.Undefined()
	}
	if err := vm.Set("print", printFunc); err != nil {
		return fmt.Errorf("failed to set print: %w", err)
	}
	console := vm.NewObject()
	if err := console.Set("log", printFunc); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to set console: %w", err)
	}

	lenFunc := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) != 1 {
			panic(vm.NewTypeError("len requires 1 argument"))
		}
		n, ok := lengthOf(call.Arguments[0])
		if !ok {
			panic(vm.NewTypeError("object has no len()"))
		}
		return vm.ToValue(n)
	}
	if err := vm.Set("len", lenFunc); err != nil {
		return fmt.Errorf("failed to set len: %w", err)
	}

	st := vm.NewObject()
	for _, kind := range displayKinds {
		fn := func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("st." + kind + ": missing argument"))
			}
			if len(call.Arguments) == 1 {
				rec.add(kind, exportValue(call.Arguments[0]))
				return goja.Undefined()
			}
			vals := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				vals[i] = exportValue(a)
			}
			rec.add(kind, vals)
			return goja.Undefined()
		}
		if err := st.Set(kind, fn); err != nil {
			return fmt.Errorf("failed to set st.%s: %w", kind, err)
		}
	}
	if err := vm.Set("st", st); err != nil {
		return fmt.Errorf("failed to set st: %w", err)
	}

	alt := vm.NewObject()
	if err := alt.Set("Chart", dataset.NewChart); err != nil {
		return fmt.Errorf("failed to set alt.Chart: %w", err)
	}
	if err := vm.Set("alt", alt); err != nil {
		return fmt.Errorf("failed to set alt: %w", err)
	}

	return nil
}

func lengthOf(v goja.Value) (int, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, false
	}
	switch x := v.Export().(type) {
	case interface{ Len() int }:
		return x.Len(), true
	case string:
		return len([]rune(x)), true
	case []any:
		return len(x), true
	case []string:
		return len(x), true
	case []float64:
		return len(x), true
	case map[string]any:
		return len(x), true
	}
	return 0, false
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// formatValue renders a goja value for display.
func formatValue(val goja.Value) string {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "undefined"
	}

	switch v := val.Export().(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case fmt.Stringer:
		return v.String()
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprintf("%v", item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
