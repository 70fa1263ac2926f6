package catalog

import (
	"context"
	"sync"
)

// SelectionState is the state of the detail view.
type SelectionState int

const (
	SelectionClosed SelectionState = iota
	SelectionLoading
	SelectionOpen
)

func (s SelectionState) String() string {
	switch s {
	case SelectionLoading:
		return "loading"
	case SelectionOpen:
		return "open"
	default:
		return "closed"
	}
}

// DetailResolver is the part of Resolver the selector needs.
type DetailResolver interface {
	Resolve(ctx context.Context, identifier string) DetailRecord
}

// Selection is a snapshot of the selector.
// Entry is nil when closed; Detail is nil unless open.
type Selection struct {
	State  SelectionState
	Entry  *Entry
	Detail *DetailRecord
}

// Selector tracks at most one selected entry and its detail view.
type Selector struct {
	mu       sync.Mutex
	resolver DetailResolver
	state    SelectionState
	entry    Entry
	detail   DetailRecord
	token    uint64
	onChange func(Selection)
}

// NewSelector creates a closed selector resolving through resolver.
func NewSelector(resolver DetailResolver) *Selector {
	return &Selector{resolver: resolver}
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs outside the selector lock, possibly on a resolution goroutine.
func (s *Selector) OnChange(fn func(Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Select replaces the current selection with entry and starts resolving it.
// The returned channel is closed once that resolution has finished, whether
// or not the selection is still current by then.
func (s *Selector) Select(ctx context.Context, entry Entry) <-chan struct{} {
	s.mu.Lock()
	s.token++
	token := s.token
	s.state = SelectionLoading
	s.entry = entry
	s.detail = DetailRecord{}
	snap, notify := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		rec := s.resolver.Resolve(ctx, entry.Identifier)

		s.mu.Lock()
		if s.token != token || s.state != SelectionLoading {
			s.mu.Unlock()
			return
		}
		s.state = SelectionOpen
		s.detail = rec
		snap, notify := s.snapshotLocked(), s.onChange
		s.mu.Unlock()

		if notify != nil {
			notify(snap)
		}
	}()
	return done
}

// Dismiss closes the detail view from any state.
func (s *Selector) Dismiss() {
	s.mu.Lock()
	s.token++
	s.state = SelectionClosed
	s.entry = Entry{}
	s.detail = DetailRecord{}
	snap, notify := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// Current returns the current selection.
func (s *Selector) Current() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Selector) snapshotLocked() Selection {
	sel := Selection{State: s.state}
	if s.state == SelectionClosed {
		return sel
	}
	entry := s.entry
	sel.Entry = &entry
	if s.state == SelectionOpen {
		detail := s.detail.clone()
		sel.Detail = &detail
	}
	return sel
}
