// Package oracle talks to the text-generation model that answers dashboard
// questions.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Turn roles understood by the model API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry of the conversation sent to the model.
type Turn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// Request is the full conversation for one generation call.
type Request struct {
	Turns []Turn `json:"turns"`
}

// Oracle produces a free-text reply for a conversation.
type Oracle interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to the Oracle interface.
type Func func(ctx context.Context, req Request) (string, error)

// Generate calls f(ctx, req).
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	ErrUnauthorized    = errors.New("oracle unauthorized")
	ErrRateLimited     = errors.New("oracle rate limited")
	ErrUnavailable     = errors.New("oracle unavailable")
	ErrEmptyCredential = errors.New("oracle credential is empty")
	ErrScriptExhausted = errors.New("no scripted replies left")
)

// Error is returned by every oracle failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LastUserText returns the text of the final user turn, or "".
func (r Request) LastUserText() string {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if r.Turns[i].Role == RoleUser && len(r.Turns[i].Parts) > 0 {
			return r.Turns[i].Parts[0]
		}
	}
	return ""
}
