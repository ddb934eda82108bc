package chat

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestHistoryAppendPreservesOrder(t *testing.T) {
	var h History
	inputs := []Message{
		UserMessage("hi"),
		AssistantMessage("hello"),
		UserMessage("mean petal length?"),
		AssistantMessage("```python\ndf['petal length (cm)'].mean()\n```"),
	}
	for _, m := range inputs {
		h.Append(m)
	}

	got := h.All()
	if len(got) != len(inputs) {
		t.Fatalf("All() returned %d messages, want %d", len(got), len(inputs))
	}
	for i := range inputs {
		if got[i].Role != inputs[i].Role || got[i].Content != inputs[i].Content {
			t.Errorf("All()[%d] = %+v, want %+v", i, got[i], inputs[i])
		}
	}
}

func TestHistoryAllReturnsCopy(t *testing.T) {
	var h History
	h.Append(UserMessage("original"))

	snapshot := h.All()
	snapshot[0].Content = "changed"

	if got := h.All()[0].Content; got != "original" {
		t.Errorf("history mutated through copy: %q", got)
	}
}

func TestHistoryConcurrentAppend(t *testing.T) {
	var h History
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Append(UserMessage("x"))
			_ = h.Len()
		}()
	}
	wg.Wait()

	if h.Len() != 50 {
		t.Errorf("Len() = %d, want 50", h.Len())
	}
}

func TestNewSession(t *testing.T) {
	a := NewSession()
	b := NewSession()

	if a.ID == b.ID {
		t.Error("sessions share an id")
	}
	id, err := uuid.Parse(a.ID)
	if err != nil {
		t.Fatalf("id %q is not a uuid: %v", a.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("id version = %d, want 7", id.Version())
	}
	if a.History.Len() != 0 {
		t.Errorf("new session has %d messages", a.History.Len())
	}
}
