package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reservpark/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SubscriptionStore persists device push subscriptions.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// ActivityArchive persists the lifecycle history of live activities.
type ActivityArchive interface {
	RecordActivity(ctx context.Context, rec *model.ActivityRecord) error
	ListActivity(ctx context.Context, reservationID string, limit int) ([]model.ActivityRecord, error)
}

// Store defines the interface for all database operations.
type Store interface {
	SubscriptionStore
	ActivityArchive
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return sub, nil
}

// SaveSubscription creates the subscription or replaces the keys of an existing one.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

func (s *gormStore) RecordActivity(ctx context.Context, rec *model.ActivityRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to archive %s event for activity %s: %w", rec.Event, rec.ActivityID, err)
	}
	return nil
}

// ListActivity returns the newest records first. An empty reservationID lists all reservations.
func (s *gormStore) ListActivity(ctx context.Context, reservationID string, limit int) ([]model.ActivityRecord, error) {
	q := s.db.WithContext(ctx)
	if reservationID != "" {
		q = q.Where("reservation_id = ?", reservationID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []model.ActivityRecord
	if err := q.Order("observed_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity records: %w", err)
	}
	return records, nil
}
