package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Fake is an in-memory Engine for tests and for embedding the Unit Engine
// without a real job scheduler. It installs jobs immediately and requires
// the caller to explicitly Complete/Fail them, mirroring how a real job
// engine would report back asynchronously.
type Fake struct {
	mu     sync.Mutex
	jobs   map[Handle]*jobState
	events chan Event
	seq    uint64
}

type jobState struct {
	unitID string
	typ    Type
}

// NewFake returns a ready-to-use in-memory job engine.
func NewFake() *Fake {
	return &Fake{
		jobs:   make(map[Handle]*jobState),
		events: make(chan Event, 256),
	}
}

func (f *Fake) Install(_ context.Context, unitID string, jobType Type, _ Mode) (Handle, error) {
	id := atomic.AddUint64(&f.seq, 1)
	h := Handle(fmt.Sprintf("job-%d", id))
	f.mu.Lock()
	f.jobs[h] = &jobState{unitID: unitID, typ: jobType}
	f.mu.Unlock()
	f.emit(Event{Job: h, UnitID: unitID, Type: jobType, Done: false})
	return h, nil
}

func (f *Fake) Complete(_ context.Context, h Handle) error {
	return f.finish(h, ResultDone)
}

func (f *Fake) Fail(_ context.Context, h Handle, result Result) error {
	return f.finish(h, result)
}

func (f *Fake) Cancel(_ context.Context, h Handle) error {
	return f.finish(h, ResultCancelled)
}

func (f *Fake) finish(h Handle, result Result) error {
	f.mu.Lock()
	st, ok := f.jobs[h]
	if ok {
		delete(f.jobs, h)
	}
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("job: unknown handle %s", h)
	}
	f.emit(Event{Job: h, UnitID: st.unitID, Type: st.typ, Result: result, Done: true})
	return nil
}

func (f *Fake) emit(e Event) {
	select {
	case f.events <- e:
	default:
	}
}

func (f *Fake) Events() <-chan Event { return f.events }

var _ Engine = (*Fake)(nil)
