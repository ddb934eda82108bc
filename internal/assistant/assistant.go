// Package assistant runs one question-and-answer cycle: record the question,
// ask the oracle, then either show the prose reply or run the code it
// contains.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/logging"
	"github.com/itsmostafa/irisdash/internal/oracle"
	"github.com/itsmostafa/irisdash/internal/prompt"
	"github.com/itsmostafa/irisdash/internal/reply"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

// ErrEmptyInput rejects blank questions before anything is recorded.
var ErrEmptyInput = errors.New("please enter a message before sending")

// Kind is the branch a cycle ended on.
type Kind string

const (
	KindWarning      Kind = "warning"
	KindAnswer       Kind = "answer"
	KindCode         Kind = "code"
	KindOracleFailed Kind = "oracle_failed"
	KindEmpty        Kind = "empty"
)

// Outcome is everything the presentation layer needs from one cycle.
type Outcome struct {
	Kind Kind
	// Reply is the trimmed oracle text as stored in the history.
	Reply string
	// Code is the extracted body when Kind is KindCode.
	Code string
	// Closed is false when the code fence was never closed.
	Closed bool
	// Result is set when the code ran successfully.
	Result *sandbox.Result
	// Err is ErrEmptyInput, the oracle error, or the *sandbox.ExecError.
	Err error
}

// Executed reports whether code ran without error.
func (o Outcome) Executed() bool {
	return o.Kind == KindCode && o.Err == nil && o.Result != nil
}

// Assistant wires the oracle, classifier and executor together.
type Assistant struct {
	oracle     oracle.Oracle
	engine     sandbox.Engine
	classifier *reply.Classifier
	system     string
}

// Option customises an Assistant.
type Option func(*Assistant)

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(s string) Option {
	return func(a *Assistant) { a.system = s }
}

// WithClassifier overrides the classifier derived from the engine language.
func WithClassifier(c *reply.Classifier) Option {
	return func(a *Assistant) { a.classifier = c }
}

// New creates an assistant. The fence tag and system prompt follow the
// engine's language.
func New(o oracle.Oracle, e sandbox.Engine, opts ...Option) *Assistant {
	a := &Assistant{
		oracle:     o,
		engine:     e,
		classifier: reply.NewClassifier(e.Language()),
		system:     prompt.SystemPrompt(e.Language()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Language returns the fence tag of the executor.
func (a *Assistant) Language() string { return a.engine.Language() }

// Submit runs one cycle for text on session s. It never panics and never
// returns an error of its own: every failure is reported in the Outcome and
// the conversation stays usable.
func (a *Assistant) Submit(ctx context.Context, s *chat.Session, text string) Outcome {
	ctx = logging.WithSessionID(ctx, s.ID)
	log := logging.FromContext(ctx)

	if strings.TrimSpace(text) == "" {
		log.Debug("rejected empty input")
		return Outcome{Kind: KindWarning, Err: ErrEmptyInput}
	}

	s.History.Append(chat.UserMessage(text))

	req := prompt.Assemble(a.system, s.History.All())
	start := time.Now()
	raw, err := a.oracle.Generate(ctx, req)
	if err != nil {
		s.History.Append(chat.AssistantMessage(chat.ErrorPrefix + err.Error()))
		log.Error("oracle call failed", "error", err, "turns", len(req.Turns), "approx_tokens", prompt.EstimateTokens(req), "duration", time.Since(start))
		return Outcome{Kind: KindOracleFailed, Err: err}
	}

	text = strings.TrimSpace(raw)
	s.History.Append(chat.AssistantMessage(text))
	log.Info("oracle replied", "turns", len(req.Turns), "approx_tokens", prompt.EstimateTokens(req), "chars", len(text), "duration", time.Since(start))

	if text == "" {
		return Outcome{Kind: KindEmpty}
	}

	r := a.classifier.Classify(text)
	if r.Kind == reply.Prose {
		return Outcome{Kind: KindAnswer, Reply: text}
	}

	out := Outcome{Kind: KindCode, Reply: text, Code: r.Code, Closed: r.Closed}
	if !r.Closed {
		log.Warn("code fence not closed, running remainder of reply")
	}

	res, err := a.engine.Execute(ctx, r.Code)
	if err != nil {
		var execErr *sandbox.ExecError
		if !errors.As(err, &execErr) {
			err = &sandbox.ExecError{Stage: sandbox.StageExpression, Err: err}
		}
		log.Warn("generated code failed", "error", err)
		out.Err = err
		return out
	}

	log.Info("generated code ran", "duration", res.Duration, "displays", len(res.Displays))
	out.Result = res
	return out
}
