// Package deeplink turns URL callbacks fired by the OS widget into live
// activity actions.
package deeplink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"reservpark/internal/liveactivity"
)

var (
	// ErrAlreadyListening is returned when Run is called while another Run is active.
	ErrAlreadyListening = errors.New("deep link router is already listening")
	// ErrQueueFull is returned by Deliver when the event buffer is full.
	ErrQueueFull = errors.New("deep link queue is full")
)

// Outcome reports what the router did with a link.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
	OutcomeFailed  Outcome = "failed"
	// OutcomePending means an end-reservation link is waiting for the user to confirm.
	OutcomePending Outcome = "pending"
)

// Actions is the orchestration the router drives.
type Actions interface {
	ExtendTime(ctx context.Context, minutes int) (time.Time, error)
	EndReservation(ctx context.Context, confirm liveactivity.Confirmer) error
}

// Router parses deep links and invokes the matching action. Repeated links
// are not deduplicated: a tap delivered both as the launch URL and as a
// runtime event is applied twice.
type Router struct {
	scheme    string
	actions   Actions
	confirm   liveactivity.Confirmer
	prompter  liveactivity.Notifier
	events    chan string
	listening atomic.Bool
	observe   func(action string, outcome Outcome)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithConfirmer replaces the confirmation prompt for end-reservation links
// that do not carry confirm=true.
func WithConfirmer(c liveactivity.Confirmer) RouterOption {
	return func(r *Router) { r.confirm = c }
}

// WithPrompter sends the confirmation prompt for end-reservation links.
// Without one, unconfirmed links are declined.
func WithPrompter(n liveactivity.Notifier) RouterOption {
	return func(r *Router) { r.prompter = n }
}

// WithObserver is called after every handled link.
func WithObserver(fn func(action string, outcome Outcome)) RouterOption {
	return func(r *Router) { r.observe = fn }
}

// NewRouter creates a router accepting links with the given scheme. An empty
// scheme accepts any. The buffer bounds how many runtime events may wait.
func NewRouter(scheme string, actions Actions, buffer int, opts ...RouterOption) *Router {
	r := &Router{
		scheme:  scheme,
		actions: actions,
		events:  make(chan string, buffer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Deliver queues a link received while the app is running.
func (r *Router) Deliver(raw string) error {
	select {
	case r.events <- raw:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run replays the link the app was launched with, if any, and then handles
// delivered links until ctx is done.
func (r *Router) Run(ctx context.Context, initialURL string) error {
	if !r.listening.CompareAndSwap(false, true) {
		return ErrAlreadyListening
	}
	defer r.listening.Store(false)

	if initialURL != "" {
		log.Printf("Replaying launch deep link %s", initialURL)
		r.Handle(ctx, initialURL)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Deep link router shutting down.")
			return nil
		case raw := <-r.events:
			r.Handle(ctx, raw)
		}
	}
}

// Handle parses one link and runs its action. Malformed and unknown links are
// logged and ignored.
func (r *Router) Handle(ctx context.Context, raw string) Outcome {
	action, err := Parse(raw)
	outcome := r.dispatch(ctx, raw, action, err)
	if r.observe != nil {
		r.observe(action.Name, outcome)
	}
	return outcome
}

func (r *Router) dispatch(ctx context.Context, raw string, action Action, parseErr error) Outcome {
	if parseErr != nil {
		log.Printf("Ignoring deep link: %v", parseErr)
		return OutcomeIgnored
	}
	if r.scheme != "" && action.Scheme != r.scheme {
		log.Printf("Ignoring deep link %s: unexpected scheme %q", raw, action.Scheme)
		return OutcomeIgnored
	}

	log.Printf("Handling deep link %s for reservation %q", action.Name, action.ReservationID)

	var err error
	switch action.Name {
	case ActionExtendTime:
		_, err = r.actions.ExtendTime(ctx, action.Minutes)
	case ActionEndReservation:
		err = r.actions.EndReservation(ctx, r.confirmerFor(action))
	}
	if errors.Is(err, liveactivity.ErrNotConfirmed) {
		log.Printf("Deep link %s is waiting for confirmation", action.Name)
		return OutcomePending
	}
	if err != nil {
		log.Printf("Deep link %s failed: %v", action.Name, err)
		return OutcomeFailed
	}
	return OutcomeApplied
}

// confirmerFor decides how an end-reservation link is confirmed. A link the
// user already confirmed proceeds; otherwise the user is asked with a link
// that carries confirm=true.
func (r *Router) confirmerFor(action Action) liveactivity.Confirmer {
	if action.Confirmed {
		return liveactivity.AlwaysConfirm
	}
	if r.confirm != nil {
		return r.confirm
	}
	return liveactivity.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		if r.prompter == nil {
			log.Printf("No prompter configured, declining unconfirmed %s link", action.Name)
			return false
		}
		r.prompter.Notify("Confirm", fmt.Sprintf("%s Open %s to confirm.", prompt, confirmLink(action)))
		return false
	})
}

func confirmLink(action Action) string {
	q := url.Values{}
	if action.ReservationID != "" {
		q.Set("id", action.ReservationID)
	}
	q.Set("confirm", "true")
	u := url.URL{Scheme: action.Scheme, Host: ActionEndReservation, RawQuery: q.Encode()}
	return u.String()
}
