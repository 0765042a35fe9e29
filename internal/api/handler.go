package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"reservpark/internal/activity"
	"reservpark/internal/bridge"
	"reservpark/internal/liveactivity"
	"reservpark/internal/store"
)

// Activities is the orchestration surface used by the activity handlers.
type Activities interface {
	State() activity.State
	StartLiveActivity(ctx context.Context, data liveactivity.ReservationData) (bridge.Result, error)
	ExtendTime(ctx context.Context, minutes int) (time.Time, error)
	EndReservation(ctx context.Context, confirm liveactivity.Confirmer) error
}

// LinkQueue accepts deep links delivered while the app is running.
type LinkQueue interface {
	Deliver(raw string) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	activities Activities
	links      LinkQueue
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, activities Activities, links LinkQueue) *Handler {
	return &Handler{
		store:      s,
		webpush:    webpushOptions,
		activities: activities,
		links:      links,
		now:        time.Now,
	}
}
