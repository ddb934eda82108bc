package oracle

import (
	"context"
	"sync"
)

// Scripted replays canned replies in order. It records every request it
// receives so callers can inspect what would have been sent.
type Scripted struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []Request
}

// NewScripted returns an oracle that answers with replies, one per call.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// NewFailing returns an oracle whose every call fails with err.
func NewFailing(err error) *Scripted {
	return &Scripted{err: err}
}

// Generate implements Oracle.
func (s *Scripted) Generate(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)

	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "generate", Err: err}
	}
	if s.err != nil {
		return "", &Error{Op: "generate", Err: s.err}
	}
	if len(s.replies) == 0 {
		return "", &Error{Op: "generate", Err: ErrScriptExhausted}
	}

	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// Requests returns the requests received so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}
