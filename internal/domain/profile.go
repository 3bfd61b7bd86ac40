package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a guest identity. ID equals the hosted-auth user id, so there is no BeforeCreate hook.
type Profile struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email         string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Phone         string    `gorm:"column:phone" json:"phone"`
	InvitedByCode *string   `gorm:"column:invited_by_code" json:"invited_by_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
