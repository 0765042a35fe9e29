package bridge

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/messaging"
)

// MessageSender is the part of the Firebase messaging client the bridge uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NewFCMBridge creates a bridge that drives the countdown through Firebase
// Cloud Messaging data messages published on a topic the app subscribes to.
func NewFCMBridge(client MessageSender, topic string, newID func() string) *Live {
	return newLive(func(ctx context.Context, ev event) Result {
		return sendFCM(ctx, client, topic, ev)
	}, newID)
}

func sendFCM(ctx context.Context, client MessageSender, topic string, ev event) Result {
	message := &messaging.Message{
		Topic: topic,
		Data:  ev.data(),
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
				},
			},
		},
	}

	response, err := client.Send(ctx, message)
	if err != nil {
		log.Printf("Live activity %s message for %s failed: %v", ev.Event, ev.ID, err)
		return Result{Message: fmt.Sprintf("fcm delivery failed: %v", err)}
	}
	log.Printf("Live activity %s message for %s sent: %s", ev.Event, ev.ID, response)
	return Result{Success: true}
}
