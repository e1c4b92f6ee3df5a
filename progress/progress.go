package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/event"
)

// Delta moves one artifact between states. An empty From counts a new
// artifact; an empty To removes one.
type Delta struct {
	ID   string
	From artifact.State
	To   artifact.State
}

// Counters is a point-in-time view of the tracker.
type Counters struct {
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`

	Draft        int `json:"draft" yaml:"draft"`
	GatePending  int `json:"gatePending" yaml:"gatePending"`
	Tier1Pending int `json:"tier1Pending" yaml:"tier1Pending"`
	Tier2Pending int `json:"tier2Pending" yaml:"tier2Pending"`
	Approved     int `json:"approved" yaml:"approved"`
	Rejected     int `json:"rejected" yaml:"rejected"`
	// Transitions counts observed state changes since StartedAt
	Transitions int `json:"transitions" yaml:"transitions"`
}

// Pending returns the number of artifacts waiting on the gate or a reviewer.
func (c Counters) Pending() int {
	return c.GatePending + c.Tier1Pending + c.Tier2Pending
}

// Progress keeps aggregated artifact counters. It tracks the last known state
// per artifact, so Seed and Update may interleave in any order without double
// counting. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	states   map[string]artifact.State
	counters Counters
	onChange func(Counters)
}

// New creates an empty tracker.
func New() *Progress {
	return &Progress{states: make(map[string]artifact.State), counters: Counters{StartedAt: clock.Now()}}
}

// Seed merges stored artifact states. Artifacts already observed through
// Update keep the state they reached.
func (p *Progress) Seed(artifacts []*artifact.Artifact) {
	if p == nil {
		return
	}
	p.mu.Lock()
	for _, a := range artifacts {
		if a == nil {
			continue
		}
		if _, ok := p.states[a.ID]; ok {
			continue
		}
		p.set(a.ID, a.State)
	}
	snapshot, cb := p.counters, p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Update applies the delta. A delta whose To is already the known state was
// counted by Seed; one whose From is neither the known state nor empty is
// older than what the tracker has seen and is dropped. The onChange callback
// runs outside the lock so it may perform slow I/O.
func (p *Progress) Update(d Delta) {
	if p == nil || d.From == d.To {
		return
	}
	p.mu.Lock()
	known, ok := p.states[d.ID]
	if ok && (known == d.To || (d.From != "" && known != d.From)) {
		p.mu.Unlock()
		return
	}
	p.set(d.ID, d.To)
	if d.From != "" && d.To != "" {
		p.counters.Transitions++
	}
	snapshot, cb := p.counters, p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Emit follows a committed lifecycle event; it satisfies notify.Notifier.
func (p *Progress) Emit(_ context.Context, e *event.Lifecycle) error {
	if e != nil {
		p.Update(Delta{ID: e.ArtifactID, From: e.From, To: e.To})
	}
	return nil
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every change; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

// set moves id to state; an empty state forgets it. Callers hold mu.
func (p *Progress) set(id string, state artifact.State) {
	if known, ok := p.states[id]; ok {
		if counter := p.counter(known); counter != nil {
			*counter--
		}
	}
	if state == "" {
		delete(p.states, id)
		return
	}
	p.states[id] = state
	if counter := p.counter(state); counter != nil {
		*counter++
	}
}

func (p *Progress) counter(state artifact.State) *int {
	switch state {
	case artifact.StateDraft:
		return &p.counters.Draft
	case artifact.StateGatePending:
		return &p.counters.GatePending
	case artifact.StateTier1Pending:
		return &p.counters.Tier1Pending
	case artifact.StateTier2Pending:
		return &p.counters.Tier2Pending
	case artifact.StateApproved:
		return &p.counters.Approved
	case artifact.StateRejected:
		return &p.counters.Rejected
	}
	return nil
}
