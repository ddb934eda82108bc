package prompt

import (
	"strings"
	"unicode"

	"github.com/itsmostafa/irisdash/internal/oracle"
)

// CountTokens approximates the token count of text: about 1.3 tokens per
// word plus one per two punctuation marks. It is only used for logging.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}

	punct := 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			punct++
		}
	}
	return int(float64(len(strings.Fields(text)))*1.3) + punct/2
}

// EstimateTokens sums CountTokens over every part of req.
func EstimateTokens(req oracle.Request) int {
	n := 0
	for _, t := range req.Turns {
		for _, p := range t.Parts {
			n += CountTokens(p)
		}
	}
	return n
}
