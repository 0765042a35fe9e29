package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Broadcaster delivers a payload to every registered device and reports how
// many accepted it.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) (int, error)
}

// NewPushBridge creates a bridge that drives the countdown through web push
// messages the client turns into its native live activity.
func NewPushBridge(pusher Broadcaster, newID func() string) *Live {
	return newLive(func(ctx context.Context, ev event) Result {
		return pushEvent(ctx, pusher, ev)
	}, newID)
}

func pushEvent(ctx context.Context, pusher Broadcaster, ev event) Result {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to encode %s event: %v", ev.Event, err)}
	}

	delivered, err := pusher.Broadcast(ctx, payload)
	if err != nil {
		log.Printf("Live activity %s push for %s failed: %v", ev.Event, ev.ID, err)
		return Result{Message: fmt.Sprintf("push delivery failed: %v", err)}
	}
	if delivered == 0 {
		return Result{Message: "no registered devices accepted the live activity"}
	}
	return Result{Success: true}
}
