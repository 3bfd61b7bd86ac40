package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checkin holds the door QR for a guest and records arrival. One row per (user, drop).
type Checkin struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_checkins_user_drop" json:"user_id"`
	DropID      uuid.UUID  `gorm:"column:drop_id;type:uuid;not null;uniqueIndex:idx_checkins_user_drop" json:"drop_id"`
	CheckedInAt *time.Time `gorm:"column:checked_in_at" json:"checked_in_at"`
	QRPayload   string     `gorm:"column:qr_payload" json:"qr_payload"`
	QRCode      string     `gorm:"column:qr_code" json:"qr_code"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Checkin) TableName() string {
	return "checkins"
}

func (c *Checkin) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
