package prompt

import (
	"strings"
	"testing"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/oracle"
)

const pythonPrompt = "You are an expert on the Iris dataset and Python. " +
	"If code is needed, reply only with a complete ```python``` block. " +
	"The DataFrame is available as `df`. " +
	"Columns are: 'sepal length (cm)', 'sepal width (cm)', " +
	"'petal length (cm)', 'petal width (cm)', and 'species'. " +
	"End code with an expression that evaluates to the result, no print or return statements."

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		contains []string
		exact    string
	}{
		{name: "default", lang: "", exact: pythonPrompt},
		{name: "python", lang: "Python", exact: pythonPrompt},
		{
			name:     "javascript",
			lang:     "javascript",
			contains: []string{"```javascript```", "and JavaScript.", "df.column(name)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SystemPrompt(tt.lang)
			if tt.exact != "" && got != tt.exact {
				t.Errorf("SystemPrompt(%q) = %q, want %q", tt.lang, got, tt.exact)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("SystemPrompt(%q) missing %q", tt.lang, s)
				}
			}
		})
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		history []chat.Message
		roles   []string
	}{
		{
			name:  "empty history",
			roles: []string{"user"},
		},
		{
			name:    "single user message",
			history: []chat.Message{chat.UserMessage("hi")},
			roles:   []string{"user", "user"},
		},
		{
			name: "alternating",
			history: []chat.Message{
				chat.UserMessage("hi"),
				chat.AssistantMessage("hello"),
				chat.UserMessage("mean?"),
				chat.AssistantMessage(chat.ErrorPrefix + "boom"),
				chat.UserMessage("again"),
			},
			roles: []string{"user", "user", "model", "user", "model", "user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Assemble("SYS", tt.history)

			if len(req.Turns) != len(tt.history)+1 {
				t.Fatalf("len(Turns) = %d, want %d", len(req.Turns), len(tt.history)+1)
			}
			if req.Turns[0].Parts[0] != "SYS" || req.Turns[0].Role != oracle.RoleUser {
				t.Errorf("Turns[0] = %+v, want system prompt as user", req.Turns[0])
			}
			for i, role := range tt.roles {
				if req.Turns[i].Role != role {
					t.Errorf("Turns[%d].Role = %q, want %q", i, req.Turns[i].Role, role)
				}
			}
			for i, m := range tt.history {
				if req.Turns[i+1].Parts[0] != m.Content {
					t.Errorf("Turns[%d] content = %q, want %q", i+1, req.Turns[i+1].Parts[0], m.Content)
				}
			}
		})
	}
}
