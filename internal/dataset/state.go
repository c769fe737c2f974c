package dataset

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Phase is the lifecycle stage of the process-wide dataset.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Snapshot is an immutable view of the load state.
type Snapshot struct {
	Phase   Phase
	Dataset *Dataset
	Err     error
}

// Message returns the user-facing error text, or "" when not failed.
func (s *Snapshot) Message() string {
	if s.Phase != PhaseFailed {
		return ""
	}
	return UserMessage(s.Err)
}

// State holds the dataset behind an atomic pointer. It starts in
// PhaseLoading and transitions exactly once to PhaseReady or PhaseFailed.
type State struct {
	cur atomic.Pointer[Snapshot]
}

// NewState returns a State in PhaseLoading.
func NewState() *State {
	s := &State{}
	s.cur.Store(&Snapshot{Phase: PhaseLoading})
	return s
}

// Snapshot returns the current state.
func (s *State) Snapshot() *Snapshot {
	return s.cur.Load()
}

// Ready reports whether a dataset is available.
func (s *State) Ready() bool {
	return s.cur.Load().Phase == PhaseReady
}

// Resolve records the outcome of the single load. A nil err with a nil ds is
// treated as an empty dataset. Calling Resolve a second time returns an error
// and leaves the state unchanged.
func (s *State) Resolve(ds *Dataset, err error) error {
	next := &Snapshot{Phase: PhaseReady, Dataset: ds}
	if err == nil && ds == nil {
		err = &EmptyDatasetError{}
	}
	if err != nil {
		next = &Snapshot{Phase: PhaseFailed, Err: err}
	}
	cur := s.cur.Load()
	if cur.Phase != PhaseLoading || !s.cur.CompareAndSwap(cur, next) {
		return eris.New("dataset: state already resolved")
	}
	return nil
}
