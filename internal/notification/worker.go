// Package notification delivers reservation lifecycle events to web-push
// subscriptions through a small worker pool. Push delivery is a narrow
// collaborator: the pool only looks up subscriptions and sends.
package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Event describes one reservation status change worth pushing.
type Event struct {
	RequesterID  string                  `json:"-"`
	Reservation  string                  `json:"reservation_id"`
	HospitalName string                  `json:"hospital_name"`
	Status       model.ReservationStatus `json:"status"`
	Message      string                  `json:"message"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	store   store.Store
	webpush *webpush.Options
	sender  Sender
	logger  zerolog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger,
	}
}

// SetSender overrides the sender, used by tests.
func (wp *WorkerPool) SetSender(s Sender) { wp.sender = s }

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case event := <-wp.jobs:
			wp.deliver(ctx, event)
		case <-ctx.Done():
			wp.logger.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch enqueues an event without blocking the caller; when the queue is
// full the event is dropped, since reservation state itself is authoritative.
func (wp *WorkerPool) Dispatch(event Event) {
	select {
	case wp.jobs <- event:
	default:
		wp.logger.Warn().Str("reservation_id", event.Reservation).Msg("notification queue full, event dropped")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event { return wp.jobs }

func (wp *WorkerPool) deliver(ctx context.Context, event Event) {
	subs, err := wp.store.SubscriptionsForRequester(ctx, event.RequesterID)
	if err != nil {
		wp.logger.Error().Err(err).Str("requester_id", event.RequesterID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		wp.logger.Error().Err(err).Msg("failed to encode notification payload")
		return
	}

	for _, sub := range subs {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
