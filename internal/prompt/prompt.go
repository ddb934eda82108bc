// Package prompt turns a chat history into an oracle request.
package prompt

import (
	"fmt"
	"strings"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/oracle"
)

const systemTemplate = "You are an expert on the Iris dataset and %s. " +
	"If code is needed, reply only with a complete ```%s``` block. " +
	"The DataFrame is available as `df`. " +
	"Columns are: 'sepal length (cm)', 'sepal width (cm)', " +
	"'petal length (cm)', 'petal width (cm)', and 'species'. " +
	"End code with an expression that evaluates to the result, no print or return statements."

// javascriptHint tells the model how the frame is reached from script code.
const javascriptHint = " Access columns with `df.column(name)`; " +
	"frames and columns expose methods such as len(), mean(), describe(), filter(col, op, value) and groupBy(col)."

// SystemPrompt returns the instructions sent ahead of every conversation.
// lang is the fence tag of the execution engine, e.g. "python".
func SystemPrompt(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch lang {
	case "", "python":
		return fmt.Sprintf(systemTemplate, "Python", "python")
	case "javascript":
		return fmt.Sprintf(systemTemplate, "JavaScript", "javascript") + javascriptHint
	default:
		return fmt.Sprintf(systemTemplate, lang, lang)
	}
}

// Assemble builds the request for one oracle call. The system prompt is
// always the first turn, tagged as user; the history follows verbatim with
// assistant messages mapped to the model role.
func Assemble(system string, history []chat.Message) oracle.Request {
	turns := make([]oracle.Turn, 0, len(history)+1)
	turns = append(turns, oracle.Turn{Role: oracle.RoleUser, Parts: []string{system}})

	for _, m := range history {
		role := oracle.RoleUser
		if m.Role != chat.RoleUser {
			role = oracle.RoleModel
		}
		turns = append(turns, oracle.Turn{Role: role, Parts: []string{m.Content}})
	}

	return oracle.Request{Turns: turns}
}
