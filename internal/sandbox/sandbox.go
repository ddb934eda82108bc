// Package sandbox runs generated analysis code against the Iris data.
//
// Code runs inside an embedded interpreter, never on the host: the only names
// it can reach are the ones in the execution namespace (df, iris, st, alt and
// a few pure helpers). Every call starts from a fresh namespace, runs under a
// wall-clock timeout and, where the interpreter supports it, a step budget.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine executes one code body and returns the value of its final expression.
type Engine interface {
	// Language is the fence tag of the code the engine runs, e.g. "python".
	Language() string
	Execute(ctx context.Context, code string) (*Result, error)
}

// Display is something the code asked the presentation layer to show
// through the st helper, e.g. st.write(df.head()).
type Display struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// Result is a successful execution.
type Result struct {
	// Value is the final expression converted to a Go value.
	Value any `json:"value"`
	// Repr is the interpreter's own rendering of Value.
	Repr     string        `json:"repr"`
	Output   string        `json:"output,omitempty"`
	Displays []Display     `json:"displays,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Stage names the part of an execution that failed.
type Stage string

const (
	StageSetup      Stage = "setup"
	StageStatements Stage = "statements"
	StageExpression Stage = "expression"
	StageTimeout    Stage = "timeout"
)

// ExecError is returned for any failure inside generated code.
type ExecError struct {
	Stage Stage
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Config bounds an execution.
type Config struct {
	Timeout        time.Duration
	MaxSteps       uint64
	MaxOutputChars int
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxSteps:       50_000_000,
		MaxOutputChars: 20_000,
	}
}

// New returns the engine for lang. "python" and "starlark" select the
// Starlark engine; "javascript", "js" and "goja" select the goja engine.
func New(lang string, cfg Config) (Engine, error) {
	ns, err := NewNamespace()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(lang) {
	case "", "python", "starlark":
		return NewStarlark(ns, cfg), nil
	case "javascript", "js", "goja":
		return NewGoja(ns, cfg), nil
	}
	return nil, fmt.Errorf("unknown engine %q", lang)
}

// split divides code into the statement block and the final expression.
// Blank lines are dropped; a single remaining line is the expression alone.
func split(code string) (statements, expr string, ok bool) {
	var lines []string
	for _, l := range strings.Split(code, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, "\r"))
		}
	}
	if len(lines) == 0 {
		return "", "", false
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.Join(lines[:len(lines)-1], "\n"), last, true
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("\n... (truncated, total %d chars)", len(s))
}
