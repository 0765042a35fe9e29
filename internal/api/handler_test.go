package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"reservpark/config"
	"reservpark/internal/activity"
	"reservpark/internal/bridge"
	"reservpark/internal/liveactivity"
	"reservpark/internal/model"
	"reservpark/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testServerConfig = config.ServerConfig{
	RateLimitPerSec: 1000,
	RateLimitBurst:  1000,
	CacheTTLSeconds: 60,
}

// mockActivities is a mock implementation of the Activities interface.
type mockActivities struct {
	state      activity.State
	StartFunc  func(ctx context.Context, data liveactivity.ReservationData) (bridge.Result, error)
	ExtendFunc func(ctx context.Context, minutes int) (time.Time, error)
	EndFunc    func(ctx context.Context, confirm liveactivity.Confirmer) error
}

func (m *mockActivities) State() activity.State { return m.state }

func (m *mockActivities) StartLiveActivity(ctx context.Context, data liveactivity.ReservationData) (bridge.Result, error) {
	return m.StartFunc(ctx, data)
}

func (m *mockActivities) ExtendTime(ctx context.Context, minutes int) (time.Time, error) {
	return m.ExtendFunc(ctx, minutes)
}

func (m *mockActivities) EndReservation(ctx context.Context, confirm liveactivity.Confirmer) error {
	return m.EndFunc(ctx, confirm)
}

// mockLinks records delivered deep links.
type mockLinks struct {
	delivered []string
	err       error
}

func (m *mockLinks) Deliver(raw string) error {
	if m.err != nil {
		return m.err
	}
	m.delivered = append(m.delivered, raw)
	return nil
}

// mockStore is an in-memory store.Store.
type mockStore struct {
	subs       map[string]model.PushSubscription
	records    []model.ActivityRecord
	listCalls  int
	lastFilter string
	lastLimit  int
	err        error
}

func newMockStore() *mockStore {
	return &mockStore{subs: map[string]model.PushSubscription{}}
}

func (m *mockStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var out []model.PushSubscription
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out, m.err
}

func (m *mockStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	if m.err != nil {
		return model.PushSubscription{}, m.err
	}
	s, ok := m.subs[endpoint]
	if !ok {
		return s, store.ErrNotFound
	}
	return s, nil
}

func (m *mockStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if m.err != nil {
		return m.err
	}
	m.subs[sub.Endpoint] = *sub
	return nil
}

func (m *mockStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.subs, endpoint)
	return nil
}

func (m *mockStore) RecordActivity(ctx context.Context, rec *model.ActivityRecord) error {
	m.records = append(m.records, *rec)
	return m.err
}

func (m *mockStore) ListActivity(ctx context.Context, reservationID string, limit int) ([]model.ActivityRecord, error) {
	m.listCalls++
	m.lastFilter = reservationID
	m.lastLimit = limit
	return m.records, m.err
}
