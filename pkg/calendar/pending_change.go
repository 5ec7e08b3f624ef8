package calendar

import (
	"sync"
)

type ChangeKind string

const (
	ChangeUpsert ChangeKind = "upsert"
	ChangeDelete ChangeKind = "delete"
)

type ChangeState string

const (
	ChangeAppliedLocally ChangeState = "applied-locally"
	ChangeConfirmed      ChangeState = "confirmed"
	ChangeRolledBack     ChangeState = "rolled-back"
)

// PendingChange is an optimistic edit shown on top of the fetched events until an
// authoritative refetch of its source arrives.
type PendingChange struct {
	Event Event
	Kind  ChangeKind
	State ChangeState
}

// PendingChanges holds the changes of one session keyed by source and id.
type PendingChanges struct {
	mu      sync.Mutex
	changes map[eventKey]*PendingChange
	order   []eventKey
}

func NewPendingChanges() *PendingChanges {
	return &PendingChanges{changes: make(map[eventKey]*PendingChange)}
}

// Apply records an optimistic change. A later change for the same event replaces the earlier one.
func (p *PendingChanges) Apply(e Event, kind ChangeKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := e.key()
	if _, exists := p.changes[k]; !exists {
		p.order = append(p.order, k)
	}
	p.changes[k] = &PendingChange{Event: e, Kind: kind, State: ChangeAppliedLocally}
}

func (p *PendingChanges) Confirm(source SourceKind, id string) {
	p.setState(eventKey{source: source, id: id}, ChangeConfirmed)
}

// RollBack marks the change as failed. Rolled back changes are never overlaid.
func (p *PendingChanges) RollBack(source SourceKind, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := eventKey{source: source, id: id}
	if c, ok := p.changes[k]; ok {
		c.State = ChangeRolledBack
		p.remove(k)
	}
}

func (p *PendingChanges) setState(k eventKey, state ChangeState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.changes[k]; ok {
		c.State = state
	}
}

func (p *PendingChanges) Get(source SourceKind, id string) (PendingChange, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.changes[eventKey{source: source, id: id}]
	if !ok {
		return PendingChange{}, false
	}
	return *c, true
}

// Reconcile is called after an authoritative refetch of source. Confirmed changes of that
// source are dropped because the fetched data already contains them.
func (p *PendingChanges) Reconcile(source SourceKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range append([]eventKey(nil), p.order...) {
		c := p.changes[k]
		if k.source == source && c.State == ChangeConfirmed {
			p.remove(k)
		}
	}
}

func (p *PendingChanges) remove(k eventKey) {
	delete(p.changes, k)
	for i, o := range p.order {
		if o == k {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Overlay returns events with the outstanding changes of source applied: upserts replace
// or add events, deletes remove them.
func (p *PendingChanges) Overlay(source SourceKind, events []Event) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	relevant := make(map[eventKey]*PendingChange)
	for _, k := range p.order {
		if k.source == source && p.changes[k].State != ChangeRolledBack {
			relevant[k] = p.changes[k]
		}
	}
	if len(relevant) == 0 {
		return events
	}

	result := make([]Event, 0, len(events)+len(relevant))
	applied := make(map[eventKey]struct{})
	for _, e := range events {
		c, ok := relevant[e.key()]
		if !ok {
			result = append(result, e)
			continue
		}
		applied[e.key()] = struct{}{}
		if c.Kind == ChangeUpsert {
			result = append(result, c.Event)
		}
	}
	for _, k := range p.order {
		c, ok := relevant[k]
		if !ok {
			continue
		}
		if _, done := applied[k]; done || c.Kind != ChangeUpsert {
			continue
		}
		result = append(result, c.Event)
	}
	return result
}

func (p *PendingChanges) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}
