package notification

import (
	"context"
	"encoding/json"
	"log"
)

// Alert is an informational message for the user.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// WorkerPool manages a pool of workers that push alerts to the user's devices.
type WorkerPool struct {
	size   int
	jobs   chan Alert
	pusher Broadcaster
}

// Broadcaster delivers a payload to every registered device.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) (int, error)
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size, queue int, pusher Broadcaster) *WorkerPool {
	return &WorkerPool{
		size:   size,
		jobs:   make(chan Alert, queue), // Buffered channel
		pusher: pusher,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Notify logs the alert and queues it for delivery. It never blocks: when the
// queue is full the alert is only logged.
func (wp *WorkerPool) Notify(title, message string) {
	log.Printf("Alert: %s: %s", title, message)
	select {
	case wp.jobs <- Alert{Title: title, Message: message}:
	default:
		log.Printf("Alert queue is full, dropping %q", title)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, alert Alert) {
	payload, err := json.Marshal(struct {
		Event string `json:"event"`
		Alert
	}{Event: "alert", Alert: alert})
	if err != nil {
		log.Printf("Error encoding alert %q: %v", alert.Title, err)
		return
	}

	delivered, err := wp.pusher.Broadcast(ctx, payload)
	if err != nil {
		log.Printf("Error delivering alert %q: %v", alert.Title, err)
		return
	}
	log.Printf("Alert %q delivered to %d devices", alert.Title, delivered)
}
