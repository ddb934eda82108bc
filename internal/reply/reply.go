// Package reply decides whether an oracle reply is prose or a fenced code
// block, and pulls the code body out of it.
package reply

import "strings"

// Kind classifies a reply.
type Kind int

const (
	Prose Kind = iota
	Code
)

func (k Kind) String() string {
	if k == Code {
		return "code"
	}
	return "prose"
}

// Fence is the closing marker of a code block.
const Fence = "```"

// Reply is the classified form of an oracle reply.
type Reply struct {
	Kind Kind
	// Code is the raw body between the fences, whitespace kept.
	Code string
	// Closed is false when the opening fence was never closed; Code then
	// holds everything after the opening fence.
	Closed bool
}

// Classifier recognises code blocks tagged with one language.
type Classifier struct {
	open string
}

// NewClassifier returns a classifier for fences tagged with lang, e.g.
// "python" matches "```python".
func NewClassifier(lang string) *Classifier {
	return &Classifier{open: Fence + lang}
}

// Default is the classifier for python-tagged blocks.
var Default = NewClassifier("python")

// Classify uses the python classifier.
func Classify(text string) Reply {
	return Default.Classify(text)
}

// OpenFence returns the opening marker the classifier looks for.
func (c *Classifier) OpenFence() string { return c.open }

// Classify inspects text. A reply is code only when, once trimmed, it starts
// with the opening fence; anything else, including "", is prose.
func (c *Classifier) Classify(text string) Reply {
	if !strings.HasPrefix(strings.TrimSpace(text), c.open) {
		return Reply{Kind: Prose}
	}
	body, closed := c.extract(text)
	return Reply{Kind: Code, Code: body, Closed: closed}
}

type scanState int

const (
	seekOpen scanState = iota
	seekClose
)

// extract walks text in two states. In seekOpen it skips to just past the
// first opening fence; in seekClose it stops at the first closing fence.
func (c *Classifier) extract(text string) (string, bool) {
	state := seekOpen
	rest := text
	for {
		switch state {
		case seekOpen:
			i := strings.Index(rest, c.open)
			if i < 0 {
				return "", false
			}
			rest = rest[i+len(c.open):]
			state = seekClose
		case seekClose:
			i := strings.Index(rest, Fence)
			if i < 0 {
				return rest, false
			}
			return rest[:i], true
		}
	}
}
