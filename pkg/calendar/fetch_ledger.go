package calendar

import (
	"sync"
)

// FetchTicket identifies one issued fetch for a key.
type FetchTicket[K comparable] struct {
	Key K
	seq uint64
}

// FetchLedger keeps the latest result per key. A result is accepted only when it belongs to
// the most recently issued fetch for its key, so a slow fetch for an abandoned range can never
// overwrite a newer one, whatever order they complete in.
type FetchLedger[K comparable, V any] struct {
	mu      sync.Mutex
	seq     uint64
	latest  map[K]uint64
	results map[K]V
}

func NewFetchLedger[K comparable, V any]() *FetchLedger[K, V] {
	return &FetchLedger[K, V]{
		latest:  make(map[K]uint64),
		results: make(map[K]V),
	}
}

// Issue registers a new fetch for key and supersedes all earlier ones.
func (l *FetchLedger[K, V]) Issue(key K) FetchTicket[K] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.latest[key] = l.seq
	return FetchTicket[K]{Key: key, seq: l.seq}
}

// Resolve stores value if ticket is still the latest issued fetch for its key.
func (l *FetchLedger[K, V]) Resolve(ticket FetchTicket[K], value V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest[ticket.Key] != ticket.seq {
		return false
	}
	l.results[ticket.Key] = value
	return true
}

func (l *FetchLedger[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.results[key]
	return v, ok
}

// Invalidate drops the cached result for key. In-flight fetches for key are superseded too.
func (l *FetchLedger[K, V]) Invalidate(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.results, key)
	l.seq++
	l.latest[key] = l.seq
}

func (l *FetchLedger[K, V]) InvalidateAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.results {
		delete(l.results, key)
	}
	for key := range l.latest {
		l.seq++
		l.latest[key] = l.seq
	}
}
