package bridge

import (
	"context"
)

// deliverFunc hands one lifecycle event to the platform transport.
type deliverFunc func(ctx context.Context, ev event) Result

// Live implements Bridge over a transport that reaches the user's devices.
// It tracks which ids are live so updates and stops for unknown ids fail.
// An activity whose end time has passed is still live until it is stopped.
type Live struct {
	deliver  deliverFunc
	newID    func() string
	registry *registry
}

func newLive(deliver deliverFunc, newID func() string) *Live {
	return &Live{
		deliver:  deliver,
		newID:    newID,
		registry: newRegistry(),
	}
}

func (b *Live) Start(ctx context.Context, req Request) Result {
	id := b.newID()
	if res := b.deliver(ctx, event{Event: "start", ID: id, Request: req}); !res.Success {
		return res
	}
	b.registry.track(id)
	return Result{Success: true, ID: id}
}

func (b *Live) Update(ctx context.Context, id string, req Request) Result {
	if !b.registry.isLive(id) {
		return unknownActivity(id)
	}
	req.ReservationID = ""
	if res := b.deliver(ctx, event{Event: "update", ID: id, Request: req}); !res.Success {
		return res
	}
	return Result{Success: true}
}

func (b *Live) Stop(ctx context.Context, id string) Result {
	if !b.registry.isLive(id) {
		return unknownActivity(id)
	}
	if res := b.deliver(ctx, event{Event: "stop", ID: id}); !res.Success {
		return res
	}
	b.registry.forget(id)
	return Result{Success: true}
}
