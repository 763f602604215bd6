package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-access-backend/internal/db"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/store"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestStore(t *testing.T) store.Store {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(testDB))
	return store.NewGormStore(testDB)
}

func TestWorkerPoolDispatchNonBlocking(t *testing.T) {
	wp := NewWorkerPool(1, newTestStore(t), &webpush.Options{}, zerolog.Nop())

	event := Event{RequesterID: "r1", Reservation: "res-1", Status: model.ReservationArrived}
	wp.Dispatch(event)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "res-1", job.Reservation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}

	// A full queue drops events instead of blocking the request path.
	wp.Dispatch(event)
	wp.Dispatch(event)
	wp.Dispatch(event)
}

func TestWorkerPoolDeliversToSubscriptions(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertSubscription(context.Background(), &model.PushSubscription{
		Endpoint:    "https://example.com/push",
		RequesterID: "r1",
		P256DH:      "test_p256dh",
		Auth:        "test_auth",
	}))

	wp := NewWorkerPool(1, s, &webpush.Options{}, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "test_p256dh", sub.Keys.P256dh)

			var event Event
			require.NoError(t, json.Unmarshal(payload, &event))
			assert.Equal(t, "res-1", event.Reservation)
			assert.Equal(t, model.ReservationPatientOnWay, event.Status)
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Event{
		RequesterID:  "r1",
		Reservation:  "res-1",
		HospitalName: "City General",
		Status:       model.ReservationPatientOnWay,
		Message:      "Patient on the way",
	})
	wg.Wait()
}

func TestWorkerPoolDeletesExpiredSubscription(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertSubscription(context.Background(), &model.PushSubscription{
		Endpoint:    "https://example.com/expired",
		RequesterID: "r1",
		P256DH:      "p",
		Auth:        "a",
	}))

	wp := NewWorkerPool(1, s, &webpush.Options{}, zerolog.Nop())
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Event{RequesterID: "r1", Reservation: "res-1", Status: model.ReservationExpired})

	// The worker deletes the stale endpoint after the 410 response.
	assert.Eventually(t, func() bool {
		subs, err := s.SubscriptionsForRequester(context.Background(), "r1")
		return err == nil && len(subs) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWorkerPoolNoSubscriptionsIsANoop(t *testing.T) {
	s := newTestStore(t)
	wp := NewWorkerPool(1, s, &webpush.Options{}, zerolog.Nop())

	called := false
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			called = true
			return nil, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Event{RequesterID: "nobody", Reservation: "res-1"})
	time.Sleep(100 * time.Millisecond)
	assert.False(t, called)
}
