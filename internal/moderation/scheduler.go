package moderation

import (
	"container/heap"
	"time"
)

// Scheduler is a min-ordered queue of pending expirations keyed by fire-at
// time, holding at most one pending expiry per (server, player, class) slot.
// It carries no timer of its own; the owning loop asks for Next and pops due
// entries whenever its wake-up fires.
type Scheduler struct {
	queue expiryQueue
	byKey map[key]*pendingExpiry
}

type pendingExpiry struct {
	entry  *Entry
	fireAt time.Time
	index  int
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{byKey: make(map[key]*pendingExpiry)}
}

// Schedule inserts a pending expiry for the entry. If the entry's slot
// already has one pending, it is cancelled first, matching the store's
// replace semantics.
func (s *Scheduler) Schedule(e *Entry, fireAt time.Time) {
	k := e.storeKey()
	if old := s.byKey[k]; old != nil {
		heap.Remove(&s.queue, old.index)
	}
	p := &pendingExpiry{entry: e, fireAt: fireAt}
	s.byKey[k] = p
	heap.Push(&s.queue, p)
}

// Cancel removes the pending expiry for the entry's slot without firing it.
// No-op if nothing is pending.
func (s *Scheduler) Cancel(e *Entry) {
	k := e.storeKey()
	p := s.byKey[k]
	if p == nil {
		return
	}
	delete(s.byKey, k)
	heap.Remove(&s.queue, p.index)
}

// Next returns the earliest fire-at time, if any.
func (s *Scheduler) Next() (time.Time, bool) {
	if s.queue.Len() == 0 {
		return time.Time{}, false
	}
	return s.queue[0].fireAt, true
}

// PopDue removes and returns every entry whose fire-at is at or before now,
// in fire-at order.
func (s *Scheduler) PopDue(now time.Time) []*Entry {
	var due []*Entry
	for s.queue.Len() > 0 && !s.queue[0].fireAt.After(now) {
		p := heap.Pop(&s.queue).(*pendingExpiry)
		delete(s.byKey, p.entry.storeKey())
		due = append(due, p.entry)
	}
	return due
}

// Len returns the number of pending expiries.
func (s *Scheduler) Len() int { return s.queue.Len() }

type expiryQueue []*pendingExpiry

func (q expiryQueue) Len() int { return len(q) }

func (q expiryQueue) Less(i, j int) bool { return q[i].fireAt.Before(q[j].fireAt) }

func (q expiryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *expiryQueue) Push(x any) {
	p := x.(*pendingExpiry)
	p.index = len(*q)
	*q = append(*q, p)
}

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return p
}
