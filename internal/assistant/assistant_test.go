package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/logging"
	"github.com/itsmostafa/irisdash/internal/oracle"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

func newAssistant(t *testing.T, o oracle.Oracle) *Assistant {
	t.Helper()
	engine, err := sandbox.New("python", sandbox.DefaultConfig())
	require.NoError(t, err)
	return New(o, engine)
}

func quietContext() context.Context {
	return logging.WithLogger(context.Background(), logging.Nop())
}

func TestSubmitEmptyInput(t *testing.T) {
	o := oracle.NewScripted("unused")
	a := newAssistant(t, o)
	s := chat.NewSession()

	for _, input := range []string{"", "   ", "\n\t"} {
		out := a.Submit(quietContext(), s, input)
		assert.Equal(t, KindWarning, out.Kind)
		assert.ErrorIs(t, out.Err, ErrEmptyInput)
	}

	assert.Equal(t, 0, s.History.Len())
	assert.Empty(t, o.Requests(), "oracle must not be called for empty input")
}

func TestSubmitProse(t *testing.T) {
	a := newAssistant(t, oracle.NewScripted("  The mean sepal length is 5.8\n"))
	s := chat.NewSession()

	out := a.Submit(quietContext(), s, "What is the mean sepal length?")

	assert.Equal(t, KindAnswer, out.Kind)
	assert.Equal(t, "The mean sepal length is 5.8", out.Reply)
	assert.NoError(t, out.Err)

	msgs := s.History.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "The mean sepal length is 5.8", msgs[1].Content)
}

func TestSubmitCode(t *testing.T) {
	a := newAssistant(t, oracle.NewScripted("```python\ndf.shape[0]\n```"))
	s := chat.NewSession()

	out := a.Submit(quietContext(), s, "How many rows?")

	require.Equal(t, KindCode, out.Kind)
	require.NoError(t, out.Err)
	assert.Equal(t, "\ndf.shape[0]\n", out.Code)
	assert.True(t, out.Closed)
	assert.True(t, out.Executed())
	assert.Equal(t, int64(150), out.Result.Value)

	msgs := s.History.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, "```python\ndf.shape[0]\n```", msgs[1].Content, "history keeps the reply text, not the result")
}

func TestSubmitCodeFailureKeepsHistory(t *testing.T) {
	a := newAssistant(t, oracle.NewScripted("```python\n1/0\n```", "still here"))
	s := chat.NewSession()
	ctx := quietContext()

	out := a.Submit(ctx, s, "divide")

	require.Equal(t, KindCode, out.Kind)
	var execErr *sandbox.ExecError
	require.ErrorAs(t, out.Err, &execErr)
	assert.False(t, out.Executed())
	assert.Equal(t, 2, s.History.Len())

	out = a.Submit(ctx, s, "next question")
	assert.Equal(t, KindAnswer, out.Kind)
	assert.Equal(t, 4, s.History.Len())
}

func TestSubmitOracleFailure(t *testing.T) {
	a := newAssistant(t, oracle.NewFailing(errors.New("connection reset")))
	s := chat.NewSession()

	out := a.Submit(quietContext(), s, "hello?")

	assert.Equal(t, KindOracleFailed, out.Kind)
	var oe *oracle.Error
	require.ErrorAs(t, out.Err, &oe)

	msgs := s.History.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello?", msgs[0].Content)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, chat.ErrorPrefix))
	assert.Contains(t, msgs[1].Content, "connection reset")
}

func TestSubmitEmptyReply(t *testing.T) {
	a := newAssistant(t, oracle.NewScripted("   "))
	s := chat.NewSession()

	out := a.Submit(quietContext(), s, "anything")

	assert.Equal(t, KindEmpty, out.Kind)
	msgs := s.History.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, "", msgs[1].Content)
}

func TestSubmitUnclosedFence(t *testing.T) {
	a := newAssistant(t, oracle.NewScripted("```python\nlen(df)\n"))
	s := chat.NewSession()

	out := a.Submit(quietContext(), s, "rows?")

	require.Equal(t, KindCode, out.Kind)
	assert.False(t, out.Closed)
	require.NoError(t, out.Err)
	assert.Equal(t, int64(150), out.Result.Value)
}

func TestHistoryGrowsByPairs(t *testing.T) {
	replies := []string{"one", "```python\nlen(df)\n```", "three"}
	o := oracle.NewScripted(replies...)
	a := newAssistant(t, o)
	s := chat.NewSession()
	ctx := quietContext()

	questions := []string{"q1", "q2", "q3"}
	for _, q := range questions {
		a.Submit(ctx, s, q)
	}

	msgs := s.History.All()
	require.Len(t, msgs, 2*len(questions))
	for i, q := range questions {
		assert.Equal(t, q, msgs[2*i].Content)
		assert.Equal(t, chat.RoleUser, msgs[2*i].Role)
		assert.Equal(t, replies[i], msgs[2*i+1].Content)
		assert.Equal(t, chat.RoleAssistant, msgs[2*i+1].Role)
	}

	reqs := o.Requests()
	require.Len(t, reqs, 3)
	for i, req := range reqs {
		assert.Len(t, req.Turns, 2*i+2, "system prompt plus full history")
	}
}

func TestJavaScriptEngineUsesMatchingFence(t *testing.T) {
	engine, err := sandbox.New("javascript", sandbox.DefaultConfig())
	require.NoError(t, err)
	o := oracle.NewScripted("```javascript\nlen(df)\n```")
	a := New(o, engine)

	out := a.Submit(quietContext(), chat.NewSession(), "rows?")

	require.Equal(t, KindCode, out.Kind)
	require.NoError(t, out.Err)
	assert.Equal(t, int64(150), out.Result.Value)
	assert.Contains(t, o.Requests()[0].Turns[0].Parts[0], "```javascript```")
}

func TestMockOracleSnippetsRun(t *testing.T) {
	questions := []string{
		"How many rows?",
		"Mean petal length by species",
		"Correlation between petal length and width",
		"Plot sepal length against width",
		"Summary statistics please",
		"What is this dataset?",
	}

	for _, lang := range []string{"python", "javascript"} {
		engine, err := sandbox.New(lang, sandbox.DefaultConfig())
		require.NoError(t, err)
		a := New(oracle.NewMock(lang), engine)

		for _, q := range questions {
			t.Run(lang+"/"+q, func(t *testing.T) {
				out := a.Submit(quietContext(), chat.NewSession(), q)
				require.NoError(t, out.Err)
				assert.Contains(t, []Kind{KindCode, KindAnswer}, out.Kind)
				if out.Kind == KindCode {
					assert.True(t, out.Executed())
				}
			})
		}
	}
}
