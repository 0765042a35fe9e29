// Package bridge abstracts the platform capability that renders a live
// countdown for a reservation. Every implementation reports failures as a
// Result instead of an error so callers can carry on with the reservation.
package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"reservpark/config"
)

// MessageUnsupported is returned by every call on a platform without live activities.
const MessageUnsupported = "not supported on this platform"

// Request is the payload sent to Start and Update.
type Request struct {
	Location             string `json:"location"`
	TimeRemaining        string `json:"time_remaining"`
	Status               string `json:"status"`
	EndTime              string `json:"end_time"`
	CanExtend            bool   `json:"can_extend"`
	TotalDurationMinutes int    `json:"total_duration_minutes"`
	// ReservationID is only sent on Start.
	ReservationID string `json:"reservation_id,omitempty"`
}

// Result is the outcome of a bridge call. ID is only set by a successful Start.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Bridge starts, updates and stops the live countdown shown to the user.
type Bridge interface {
	Start(ctx context.Context, req Request) Result
	Update(ctx context.Context, id string, req Request) Result
	Stop(ctx context.Context, id string) Result
}

// Options carries the dependencies of the platform bridges.
type Options struct {
	Pusher   Broadcaster
	FCM      MessageSender
	FCMTopic string
	NewID    func() string
}

// New selects the bridge for the configured platform.
func New(platform string, opts Options) (Bridge, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	switch platform {
	case config.PlatformWebPush:
		if opts.Pusher == nil {
			return nil, fmt.Errorf("webpush bridge requires a pusher")
		}
		return NewPushBridge(opts.Pusher, opts.NewID), nil
	case config.PlatformFCM:
		if opts.FCM == nil {
			return nil, fmt.Errorf("fcm bridge requires a messaging client")
		}
		return NewFCMBridge(opts.FCM, opts.FCMTopic, opts.NewID), nil
	case config.PlatformUnsupported, "":
		return Unsupported{}, nil
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
}

// Unsupported is the bridge used where live activities do not exist.
type Unsupported struct{}

func (Unsupported) Start(context.Context, Request) Result {
	return Result{Message: MessageUnsupported}
}

func (Unsupported) Update(context.Context, string, Request) Result {
	return Result{Message: MessageUnsupported}
}

func (Unsupported) Stop(context.Context, string) Result {
	return Result{Message: MessageUnsupported}
}

// event is the message delivered to devices for every bridge call.
type event struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Request
}

func (e event) data() map[string]string {
	return map[string]string{
		"event":                  e.Event,
		"id":                     e.ID,
		"reservation_id":         e.ReservationID,
		"location":               e.Location,
		"time_remaining":         e.TimeRemaining,
		"status":                 e.Status,
		"end_time":               e.EndTime,
		"can_extend":             fmt.Sprintf("%t", e.CanExtend),
		"total_duration_minutes": fmt.Sprintf("%d", e.TotalDurationMinutes),
	}
}

func unknownActivity(id string) Result {
	return Result{Message: fmt.Sprintf("no live activity with id %q", id)}
}
