package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"reservpark/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the part of the store the pusher needs.
type Subscriptions interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Pusher sends web push payloads to every registered device.
type Pusher struct {
	subs    Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
}

// NewPusher creates a pusher that uses the real webpush sender.
func NewPusher(subs Subscriptions, webpushOptions *webpush.Options) *Pusher {
	return &Pusher{
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Broadcast sends payload to all subscriptions and returns how many accepted it.
// Expired subscriptions are removed on the way.
func (p *Pusher) Broadcast(ctx context.Context, payload []byte) (int, error) {
	subscriptions, err := p.subs.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	delivered := 0
	for _, sub := range subscriptions {
		if p.send(ctx, sub, payload) {
			delivered++
		}
	}
	return delivered, nil
}

// send sends a single web push notification.
func (p *Pusher) send(ctx context.Context, sub model.PushSubscription, payload []byte) bool {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return false
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := p.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return false
	}
	if resp.StatusCode >= 300 {
		log.Printf("Push service rejected notification to %s with status %d", sub.Endpoint, resp.StatusCode)
		return false
	}
	return true
}
