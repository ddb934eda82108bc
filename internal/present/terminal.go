// Package present renders assistant outcomes and the dashboard view on a
// terminal.
package present

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/itsmostafa/irisdash/internal/assistant"
	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/dataset"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

// Options tune the terminal renderer.
type Options struct {
	// Language is the engine's fence tag, used in the code heading.
	Language string
	// Width wraps markdown answers. Zero means 80.
	Width int
	// MaxRows caps table output. Zero means 20.
	MaxRows int
	// Style is a glamour style name; "auto" detects the terminal background.
	// Empty renders answers as plain text.
	Style string
}

// Terminal writes styled output to w.
type Terminal struct {
	w        io.Writer
	opts     Options
	markdown *glamour.TermRenderer
}

// NewTerminal creates a renderer. A glamour setup failure falls back to
// plain-text answers.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = 20
	}

	t := &Terminal{w: w, opts: opts}
	if opts.Style == "" {
		return t
	}

	style := glamour.WithStandardStyle(opts.Style)
	if opts.Style == "auto" {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.Width))
	if err == nil {
		t.markdown = r
	}
	return t
}

// Heading writes a section title.
func (t *Terminal) Heading(title string) {
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, titleStyle.Render(title))
}

// Title writes the boxed dashboard title.
func (t *Terminal) Title(title string) {
	fmt.Fprintln(t.w, headerBoxStyle.Render(title))
}

// Warning writes a highlighted warning line.
func (t *Terminal) Warning(msg string) {
	fmt.Fprintln(t.w, warnStyle.Render(msg))
}

// Error writes an error line.
func (t *Terminal) Error(msg string) {
	fmt.Fprintln(t.w, errorStyle.Render(msg))
}

// Outcome renders the result of one assistant cycle.
func (t *Terminal) Outcome(out assistant.Outcome) {
	switch out.Kind {
	case assistant.KindWarning:
		t.Warning(capitalize(out.Err.Error()) + ".")
	case assistant.KindOracleFailed:
		t.Error(chat.ErrorPrefix + out.Err.Error())
	case assistant.KindEmpty:
		fmt.Fprintln(t.w, dimStyle.Render("(the assistant returned an empty reply)"))
	case assistant.KindAnswer:
		t.Heading("Answer")
		t.Markdown(out.Reply)
	case assistant.KindCode:
		t.Heading(fmt.Sprintf("Generated %s Code", languageTitle(t.opts.Language)))
		fmt.Fprintln(t.w, codeBoxStyle.Render(strings.Trim(out.Code, "\n")))
		if !out.Closed {
			t.Warning("The code block was not closed; ran the rest of the reply.")
		}
		if out.Err != nil {
			t.Error("Error executing code: " + out.Err.Error())
			return
		}
		t.Heading("Execution Result")
		t.Result(out.Result)
	}
}

// Markdown renders prose, through glamour when a style is configured.
func (t *Terminal) Markdown(text string) {
	if t.markdown != nil {
		if s, err := t.markdown.Render(text); err == nil {
			fmt.Fprint(t.w, s)
			return
		}
	}
	fmt.Fprintln(t.w, text)
}

// Result writes captured output, displays and the final value.
func (t *Terminal) Result(res *sandbox.Result) {
	if res == nil {
		return
	}
	if res.Output != "" {
		fmt.Fprint(t.w, dimStyle.Render(strings.TrimRight(res.Output, "\n")))
		fmt.Fprintln(t.w)
	}
	for _, d := range res.Displays {
		fmt.Fprintln(t.w, dimStyle.Render("st."+d.Kind+":"))
		t.Value(d.Value, "")
	}
	t.Value(res.Value, res.Repr)
	fmt.Fprintln(t.w, dimStyle.Render(fmt.Sprintf("(%s)", res.Duration.Round(time.Microsecond))))
}

// Value renders a converted interpreter value. repr is used for scalars
// when non-empty.
func (t *Terminal) Value(v any, repr string) {
	switch v := v.(type) {
	case *dataset.Frame:
		t.Frame(v)
	case *dataset.Column:
		f, err := dataset.New(v)
		if err != nil {
			t.Error(err.Error())
			return
		}
		t.Frame(f)
	case dataset.Chart:
		t.Chart(v)
	case map[string]any:
		t.Map(v)
	default:
		if repr == "" {
			repr = dataset.FormatValue(v)
		}
		fmt.Fprintln(t.w, successStyle.Render(repr))
	}
}

// Frame writes f as a table, capped at MaxRows.
func (t *Terminal) Frame(f *dataset.Frame) {
	rows := f.Rows()
	shown := rows[:min(len(rows), t.opts.MaxRows)]

	cols := f.Columns()
	tbl := newTable(cols...)
	for _, r := range shown {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = dataset.FormatValue(r[c])
		}
		tbl.Row(cells...)
	}
	fmt.Fprintln(t.w, tbl.String())
	if len(rows) > len(shown) {
		fmt.Fprintln(t.w, dimStyle.Render(fmt.Sprintf("... %d more rows (%d rows x %d columns)", len(rows)-len(shown), len(rows), len(cols))))
	}
}

// Map writes a two-column key/value table with sorted keys.
func (t *Terminal) Map(m map[string]any) {
	tbl := newTable("key", "value")
	for _, k := range slices.Sorted(maps.Keys(m)) {
		tbl.Row(k, valueString(m[k]))
	}
	fmt.Fprintln(t.w, tbl.String())
}

// Chart writes the scatter plot encoding and its point count.
func (t *Terminal) Chart(c dataset.Chart) {
	fmt.Fprintln(t.w, successStyle.Render(c.String()))
	points, err := c.Points()
	if err != nil {
		t.Error(err.Error())
		return
	}
	fmt.Fprintln(t.w, dimStyle.Render(fmt.Sprintf("%d points", len(points))))
}

// ChatWindow replays the whole conversation.
func (t *Terminal) ChatWindow(msgs []chat.Message) {
	t.Heading("Chat Window")
	if len(msgs) == 0 {
		fmt.Fprintln(t.w, dimStyle.Render("(no messages yet)"))
		return
	}
	for _, m := range msgs {
		label := userStyle.Render("user:")
		if m.Role != chat.RoleUser {
			label = assistantStyle.Render("assistant:")
		}
		fmt.Fprintf(t.w, "%s %s\n", label, m.Content)
	}
}

// Dashboard writes the filtered data, the scatter plot and the summary
// statistics.
func (t *Terminal) Dashboard(v *dataset.View) {
	fmt.Fprintln(t.w, dimStyle.Render("Species: "+strings.Join(v.Species, ", ")))
	t.Heading("Filtered Data")
	t.Frame(v.Filtered)
	t.Heading("Scatter Plot")
	t.Chart(v.Chart)
	t.Heading("Summary Statistics")
	t.Frame(v.Summary)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

func valueString(v any) string {
	switch v := v.(type) {
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, k+": "+valueString(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = valueString(x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return dataset.FormatValue(v)
}

func languageTitle(lang string) string {
	switch strings.ToLower(lang) {
	case "", "python":
		return "Python"
	case "javascript":
		return "JavaScript"
	}
	return capitalize(lang)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
