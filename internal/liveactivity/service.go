// Package liveactivity orchestrates the live countdown of a parking
// reservation: it calls the platform bridge and keeps the activity state in
// step with what the bridge confirmed.
package liveactivity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"reservpark/internal/activity"
	"reservpark/internal/bridge"
	"reservpark/internal/model"
	"reservpark/internal/parse"
)

var (
	// ErrNoActiveActivity is returned when extend or end is called while idle.
	ErrNoActiveActivity = errors.New("no active live activity")
	// ErrNotConfirmed is returned when the user declines to end the reservation.
	ErrNotConfirmed = errors.New("end of reservation not confirmed")
	// ErrBridgeFailure wraps a failed result from the platform bridge.
	ErrBridgeFailure = errors.New("live activity bridge call failed")
	// ErrInvalidMinutes is returned for a non-positive extension.
	ErrInvalidMinutes = errors.New("extension minutes must be positive")
	// ErrInvalidReservation is returned when the reservation data cannot be used.
	ErrInvalidReservation = errors.New("invalid reservation data")
)

const (
	statusActive   = "Active"
	statusExtended = "Extended"
)

// Notifier shows an informational message to the user.
type Notifier interface {
	Notify(title, message string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

// NeverConfirm declines every prompt.
var NeverConfirm = ConfirmFunc(func(context.Context, string) bool { return false })

// Archive records lifecycle transitions. Failures are logged only.
type Archive interface {
	RecordActivity(ctx context.Context, rec *model.ActivityRecord) error
}

// ReservationData describes a confirmed reservation whose countdown should be shown.
type ReservationData struct {
	ReservationID        string `json:"reservation_id" binding:"required"`
	Location             string `json:"location" binding:"required"`
	EndTime              string `json:"end_time" binding:"required"`
	TotalDurationMinutes int    `json:"total_duration_minutes" binding:"required,min=1"`
	Status               string `json:"status"`
}

// Service is the single writer of the activity state. Start, extend and end
// are serialized so concurrent calls never work from a stale end time.
type Service struct {
	mu       sync.Mutex
	state    *activity.Store
	bridge   bridge.Bridge
	notifier Notifier
	archive  Archive
	loc      *time.Location
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone bare clock times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithArchive records every successful transition.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// NewService creates the orchestration service.
func NewService(state *activity.Store, b bridge.Bridge, n Notifier, opts ...Option) *Service {
	s := &Service{
		state:    state,
		bridge:   b,
		notifier: n,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current activity.
func (s *Service) State() activity.State {
	return s.state.Snapshot()
}

// StartLiveActivity asks the bridge to show the countdown for a reservation.
// A failed result is returned as is and the state stays idle; the
// reservation itself is not affected.
func (s *Service) StartLiveActivity(ctx context.Context, data ReservationData) (bridge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	endAt, err := parse.EndTime(data.EndTime, now, s.loc)
	if err != nil {
		return bridge.Result{}, fmt.Errorf("%w: %v", ErrInvalidReservation, err)
	}
	if data.TotalDurationMinutes <= 0 {
		return bridge.Result{}, fmt.Errorf("%w: total duration must be positive", ErrInvalidReservation)
	}

	status := data.Status
	if status == "" {
		status = statusActive
	}

	res := s.bridge.Start(ctx, bridge.Request{
		Location:             data.Location,
		TimeRemaining:        parse.Remaining(endAt.Sub(now)),
		Status:               status,
		EndTime:              parse.Clock(endAt),
		CanExtend:            true,
		TotalDurationMinutes: data.TotalDurationMinutes,
		ReservationID:        data.ReservationID,
	})
	if res.Success && res.ID == "" {
		res = bridge.Result{Message: "bridge did not return an activity id"}
	}
	if !res.Success {
		log.Printf("Live activity for reservation %s not shown: %s", data.ReservationID, res.Message)
		s.notifier.Notify("Live Activity", fmt.Sprintf("The countdown could not be shown: %s", res.Message))
		return res, nil
	}

	s.state.Update(activity.Partial{
		ID:            &res.ID,
		ReservationID: &data.ReservationID,
		Location:      &data.Location,
		EndTime:       &endAt,
	})
	log.Printf("Live activity %s started for reservation %s, ends at %s", res.ID, data.ReservationID, parse.Clock(endAt))
	s.record(ctx, model.ActivityStarted, res.ID, data.ReservationID, data.Location, endAt)
	return res, nil
}

// ExtendTime moves the end of the active reservation by minutes and returns
// the new end time. Only EndTime changes in the state.
func (s *Service) ExtendTime(ctx context.Context, minutes int) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.Snapshot()
	if current.ID == nil || current.EndTime == nil {
		s.notifier.Notify("Error", "There is no active reservation to extend")
		return time.Time{}, ErrNoActiveActivity
	}
	if minutes <= 0 {
		s.notifier.Notify("Error", "An extension must be at least one minute")
		return time.Time{}, ErrInvalidMinutes
	}

	now := s.now()
	newEnd := current.EndTime.Add(time.Duration(minutes) * time.Minute)
	remaining := newEnd.Sub(now)

	res := s.bridge.Update(ctx, *current.ID, bridge.Request{
		Location:             current.Location,
		TimeRemaining:        parse.Remaining(remaining),
		Status:               statusExtended,
		EndTime:              parse.Clock(newEnd),
		CanExtend:            true,
		TotalDurationMinutes: parse.Minutes(remaining),
	})
	if !res.Success {
		log.Printf("Extending live activity %s failed: %s", *current.ID, res.Message)
		s.notifier.Notify("Error", fmt.Sprintf("Could not extend the reservation: %s", res.Message))
		return time.Time{}, fmt.Errorf("%w: %s", ErrBridgeFailure, res.Message)
	}

	s.state.Update(activity.Partial{EndTime: &newEnd})
	log.Printf("Live activity %s extended by %d minutes, now ends at %s", *current.ID, minutes, parse.Clock(newEnd))
	s.notifier.Notify("Time extended", fmt.Sprintf("Your reservation now ends at %s", parse.Clock(newEnd)))
	s.record(ctx, model.ActivityExtended, *current.ID, deref(current.ReservationID), current.Location, newEnd)
	return newEnd, nil
}

// EndReservation stops the active countdown after the user confirms. A failed
// stop leaves the state active; nothing is retried.
func (s *Service) EndReservation(ctx context.Context, confirm Confirmer) error {
	current := s.state.Snapshot()
	if current.ID == nil {
		s.notifier.Notify("Error", "There is no active reservation to end")
		return ErrNoActiveActivity
	}

	prompt := fmt.Sprintf("End your reservation at %s?", current.Location)
	if confirm == nil || !confirm.Confirm(ctx, prompt) {
		return ErrNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The activity may have changed while the user was deciding.
	current = s.state.Snapshot()
	if current.ID == nil {
		s.notifier.Notify("Error", "There is no active reservation to end")
		return ErrNoActiveActivity
	}

	res := s.bridge.Stop(ctx, *current.ID)
	if !res.Success {
		log.Printf("Stopping live activity %s failed: %s", *current.ID, res.Message)
		s.notifier.Notify("Error", fmt.Sprintf("Could not end the reservation: %s", res.Message))
		return fmt.Errorf("%w: %s", ErrBridgeFailure, res.Message)
	}

	s.state.Reset()
	log.Printf("Live activity %s ended", *current.ID)
	s.notifier.Notify("Reservation ended", "Your parking reservation has ended")

	var endTime time.Time
	if current.EndTime != nil {
		endTime = *current.EndTime
	}
	s.record(ctx, model.ActivityEnded, *current.ID, deref(current.ReservationID), current.Location, endTime)
	return nil
}

func (s *Service) record(ctx context.Context, ev model.ActivityEvent, id, reservationID, location string, endTime time.Time) {
	if s.archive == nil {
		return
	}
	rec := &model.ActivityRecord{
		ActivityID:    id,
		ReservationID: reservationID,
		Event:         ev,
		Location:      location,
		ObservedAt:    s.now().UTC(),
	}
	if !endTime.IsZero() {
		end := endTime.UTC()
		rec.EndTime = &end
	}
	if err := s.archive.RecordActivity(ctx, rec); err != nil {
		log.Printf("Warning: %v", err)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
