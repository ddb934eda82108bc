package sandbox

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/itsmostafa/irisdash/internal/dataset"
)

// ErrNoCode is returned when the code body has no non-blank line.
var ErrNoCode = errors.New("no code to run")

// Namespace holds the read-only objects every execution starts from. The
// engines bind them under fresh names on each call, so nothing defined by
// one execution is visible to the next.
type Namespace struct {
	Frame  *dataset.Frame
	Bundle dataset.Bundle
}

// NewNamespace loads the shared Iris frame and bundle.
func NewNamespace() (*Namespace, error) {
	f, err := dataset.Iris()
	if err != nil {
		return nil, errors.Wrap(err, "loading iris frame")
	}
	b, err := dataset.NewBundle(f)
	if err != nil {
		return nil, errors.Wrap(err, "building iris bundle")
	}
	return &Namespace{Frame: f, Bundle: b}, nil
}

// recorder collects st.* display calls made during one execution.
type recorder struct {
	mu       sync.Mutex
	displays []Display
}

func (r *recorder) add(kind string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.displays = append(r.displays, Display{Kind: kind, Value: v})
}

func (r *recorder) all() []Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Display(nil), r.displays...)
}

// displayKinds are the st helpers exposed to code, keyed by the name code
// calls them with.
var displayKinds = []string{"write", "markdown", "text", "code", "dataframe", "table", "altair_chart", "metric", "json"}
