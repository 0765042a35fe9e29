// Package activity holds the single live activity state of an application
// instance. The orchestration layer is its only writer.
package activity

import (
	"sync"
	"time"
)

// State is the live activity believed to be running. ID is non-nil if and only
// if a platform activity is active.
type State struct {
	ID            *string    `json:"id"`
	ReservationID *string    `json:"reservation_id"`
	Location      string     `json:"location"`
	EndTime       *time.Time `json:"end_time"`
}

// Active reports whether a live activity is believed to be running.
func (s State) Active() bool {
	return s.ID != nil
}

// Partial carries the fields to merge into the State. Nil fields are left alone.
type Partial struct {
	ID            *string
	ReservationID *string
	Location      *string
	EndTime       *time.Time
}

// Store holds one State and notifies observers after every change.
type Store struct {
	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// NewStore creates an empty (idle) store.
func NewStore() *Store {
	return &Store{}
}

// Observe registers fn to be called with a copy of the state after each change.
func (s *Store) Observe(fn func(State)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Update shallow-merges p into the current state. It does no validation.
func (s *Store) Update(p Partial) {
	s.mu.Lock()
	if p.ID != nil {
		s.state.ID = cloneString(p.ID)
	}
	if p.ReservationID != nil {
		s.state.ReservationID = cloneString(p.ReservationID)
	}
	if p.Location != nil {
		s.state.Location = *p.Location
	}
	if p.EndTime != nil {
		s.state.EndTime = cloneTime(p.EndTime)
	}
	snapshot, observers := s.copyLocked(), s.observers
	s.mu.Unlock()

	notify(observers, snapshot)
}

// Reset returns every field to its idle value in a single step.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = State{}
	snapshot, observers := s.copyLocked(), s.observers
	s.mu.Unlock()

	notify(observers, snapshot)
}

// Snapshot returns a copy that readers may keep without affecting the store.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() State {
	return State{
		ID:            cloneString(s.state.ID),
		ReservationID: cloneString(s.state.ReservationID),
		Location:      s.state.Location,
		EndTime:       cloneTime(s.state.EndTime),
	}
}

func notify(observers []func(State), st State) {
	for _, fn := range observers {
		fn(st)
	}
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
