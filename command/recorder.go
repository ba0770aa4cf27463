package command

import (
	"context"
	"sync"
)

// Recorder is an Executor that only records what it was asked to do. It backs
// dry runs and tests.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	errs    map[Kind]error
}

func NewRecorder() *Recorder {
	return &Recorder{errs: make(map[Kind]error)}
}

// FailOn makes every action of kind k fail with err.
func (r *Recorder) FailOn(k Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[k] = err
}

func (r *Recorder) Execute(_ context.Context, a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.errs[a.Kind]
}

func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
