package model

import "time"

// ActivityEvent names a lifecycle transition of a live activity.
type ActivityEvent string

const (
	ActivityStarted  ActivityEvent = "started"
	ActivityExtended ActivityEvent = "extended"
	ActivityEnded    ActivityEvent = "ended"
)

// ActivityRecord is one archived lifecycle transition of a live activity.
type ActivityRecord struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID    string        `gorm:"size:64;not null;index" json:"activity_id"`
	ReservationID string        `gorm:"size:128;not null;index" json:"reservation_id"`
	Event         ActivityEvent `gorm:"size:16;not null" json:"event"`
	Location      string        `gorm:"size:256;not null" json:"location"`
	EndTime       *time.Time    `json:"end_time"`
	ObservedAt    time.Time     `gorm:"not null;index" json:"observed_at"`
}
