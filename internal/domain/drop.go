package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Drop lifecycle states.
const (
	DropDraft     = "draft"
	DropAnnounced = "announced"
	DropSoldOut   = "sold_out"
	DropCompleted = "completed"
	DropCancelled = "cancelled"
)

// ValidDropStatuses lists every accepted drop status.
var ValidDropStatuses = []string{DropDraft, DropAnnounced, DropSoldOut, DropCompleted, DropCancelled}

// Drop is a single dinner event with a fixed seat limit.
type Drop struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	DateTime    time.Time `gorm:"column:date_time;not null;index" json:"date_time"`
	SeatLimit   int       `gorm:"column:seat_limit;not null" json:"seat_limit"`
	Status      string    `gorm:"column:status;not null;index" json:"status"`
	Description string    `gorm:"column:description" json:"description"`
	ShortCopy   string    `gorm:"column:short_copy" json:"short_copy"`
	Location    string    `gorm:"column:location" json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Drop) TableName() string {
	return "drops"
}

func (d *Drop) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// AcceptsReservations reports whether new reservations may be created.
func (d *Drop) AcceptsReservations() bool {
	return d.Status == DropAnnounced
}

// IsValidDropStatus returns true if status is a known drop state.
func IsValidDropStatus(status string) bool {
	for _, s := range ValidDropStatuses {
		if s == status {
			return true
		}
	}
	return false
}
