package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reservpark/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_RecordActivity(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	end := time.Date(2026, 10, 19, 16, 30, 0, 0, time.UTC)
	rec := &model.ActivityRecord{
		ActivityID:    "act-1",
		ReservationID: "res-1",
		Event:         model.ActivityStarted,
		Location:      "Gran Vía 123",
		EndTime:       &end,
		ObservedAt:    end.Add(-2 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "activity_records"`)).
		WithArgs("act-1", "res-1", "started", "Gran Vía 123", Any{}, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, s.RecordActivity(context.Background(), rec))
	assert.Equal(t, int64(7), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListActivity(t *testing.T) {
	testCases := []struct {
		name          string
		reservationID string
		limit         int
		query         string
	}{
		{
			name:          "filtered by reservation",
			reservationID: "res-1",
			limit:         10,
			query:         `SELECT \* FROM "activity_records" WHERE reservation_id = \$1 ORDER BY observed_at DESC LIMIT \$2`,
		},
		{
			name:  "all reservations",
			limit: 0,
			query: `SELECT \* FROM "activity_records" ORDER BY observed_at DESC`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			now := time.Now()
			mock.ExpectQuery(tc.query).
				WillReturnRows(sqlmock.NewRows([]string{"id", "activity_id", "reservation_id", "event", "location", "end_time", "observed_at"}).
					AddRow(2, "act-1", "res-1", "extended", "Gran Vía 123", now.Add(time.Hour), now).
					AddRow(1, "act-1", "res-1", "started", "Gran Vía 123", now.Add(30*time.Minute), now.Add(-time.Hour)))

			records, err := s.ListActivity(context.Background(), tc.reservationID, tc.limit)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, model.ActivityExtended, records[0].Event)
			assert.Equal(t, "res-1", records[1].ReservationID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_Subscriptions(t *testing.T) {
	t.Run("delete by endpoint", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/push").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, s.DeleteSubscription(context.Background(), "https://example.com/push"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing subscription maps to ErrNotFound", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE endpoint = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		_, err := s.GetSubscription(context.Background(), "https://example.com/none")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/a", "k1", "a1", time.Now()).
				AddRow("https://example.com/b", "k2", "a2", time.Now()))

		subs, err := s.ListSubscriptions(context.Background())
		require.NoError(t, err)
		assert.Len(t, subs, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
