package present

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/itsmostafa/irisdash/internal/assistant"
	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/dataset"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

func render(opts Options, fn func(t *Terminal)) string {
	var buf bytes.Buffer
	fn(NewTerminal(&buf, opts))
	return buf.String()
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		lang    string
		outcome assistant.Outcome
		want    []string
		notWant []string
	}{
		{
			name:    "warning",
			outcome: assistant.Outcome{Kind: assistant.KindWarning, Err: assistant.ErrEmptyInput},
			want:    []string{"Please enter a message before sending."},
		},
		{
			name:    "oracle failure",
			outcome: assistant.Outcome{Kind: assistant.KindOracleFailed, Err: errors.New("quota exceeded")},
			want:    []string{"Bot: Error - quota exceeded"},
		},
		{
			name:    "answer",
			outcome: assistant.Outcome{Kind: assistant.KindAnswer, Reply: "Setosa has the shortest petals."},
			want:    []string{"Answer", "Setosa has the shortest petals."},
			notWant: []string{"Execution Result"},
		},
		{
			name: "code result",
			outcome: assistant.Outcome{
				Kind: assistant.KindCode, Code: "\ndf.shape[0]\n", Closed: true,
				Result: &sandbox.Result{Value: int64(150), Repr: "150"},
			},
			want: []string{"Generated Python Code", "df.shape[0]", "Execution Result", "150"},
		},
		{
			name: "javascript heading",
			lang: "javascript",
			outcome: assistant.Outcome{
				Kind: assistant.KindCode, Code: "len(df)", Closed: true,
				Result: &sandbox.Result{Value: int64(150), Repr: "150"},
			},
			want: []string{"Generated JavaScript Code"},
		},
		{
			name: "code error",
			outcome: assistant.Outcome{
				Kind: assistant.KindCode, Code: "1/0", Closed: true,
				Err: &sandbox.ExecError{Stage: sandbox.StageExpression, Err: errors.New("floored division by zero")},
			},
			want:    []string{"Error executing code: expression: floored division by zero"},
			notWant: []string{"Execution Result"},
		},
		{
			name: "unclosed fence",
			outcome: assistant.Outcome{
				Kind: assistant.KindCode, Code: "len(df)", Closed: false,
				Result: &sandbox.Result{Value: int64(150), Repr: "150"},
			},
			want: []string{"not closed", "150"},
		},
		{
			name:    "empty reply",
			outcome: assistant.Outcome{Kind: assistant.KindEmpty},
			want:    []string{"empty reply"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(Options{Language: tt.lang}, func(term *Terminal) { term.Outcome(tt.outcome) })
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output unexpectedly contains %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFrameTruncates(t *testing.T) {
	f, err := dataset.Iris()
	if err != nil {
		t.Fatalf("Iris() error = %v", err)
	}

	got := render(Options{MaxRows: 3}, func(term *Terminal) { term.Frame(f) })

	if !strings.Contains(got, "species") || !strings.Contains(got, "setosa") {
		t.Errorf("table missing header or data:\n%s", got)
	}
	if !strings.Contains(got, "147 more rows") {
		t.Errorf("missing truncation note:\n%s", got)
	}
}

func TestChatWindow(t *testing.T) {
	msgs := []chat.Message{
		chat.UserMessage("How many rows?"),
		chat.AssistantMessage("```python\nlen(df)\n```"),
	}

	got := render(Options{}, func(term *Terminal) { term.ChatWindow(msgs) })

	for _, w := range []string{"Chat Window", "user:", "How many rows?", "assistant:", "len(df)"} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}

func TestDashboard(t *testing.T) {
	f, err := dataset.Iris()
	if err != nil {
		t.Fatalf("Iris() error = %v", err)
	}
	v, err := dataset.NewView(f, dataset.ViewOptions{Species: []string{"versicolor"}})
	if err != nil {
		t.Fatalf("NewView() error = %v", err)
	}

	got := render(Options{}, func(term *Terminal) { term.Dashboard(v) })

	for _, w := range []string{"Filtered Data", "Scatter Plot", "Summary Statistics", "versicolor", "50 points", "mean"} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q", w)
		}
	}
	if strings.Contains(got, "virginica") {
		t.Error("filtered dashboard shows another species")
	}
}

func TestMarkdownFallback(t *testing.T) {
	got := render(Options{Style: "notty"}, func(term *Terminal) { term.Markdown("**bold** answer") })
	if !strings.Contains(got, "bold") || !strings.Contains(got, "answer") {
		t.Errorf("Markdown() = %q", got)
	}
}
