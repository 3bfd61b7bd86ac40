package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite code sources.
const (
	InviteSourceAttendee = "attendee"
	InviteSourceAdmin    = "admin"
	InviteSourceFounder  = "founder"
)

// InviteCode is a shareable admission credential. Code is stored upper-case.
type InviteCode struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code           string     `gorm:"column:code;not null;uniqueIndex" json:"code"`
	MaxUses        int        `gorm:"column:max_uses;not null" json:"max_uses"`
	CurrentUses    int        `gorm:"column:current_uses;not null;default:0" json:"current_uses"`
	Active         bool       `gorm:"column:active;not null" json:"active"`
	ExpiresAt      *time.Time `gorm:"column:expires_at" json:"expires_at"`
	Source         string     `gorm:"column:source;not null" json:"source"`
	OwnerProfileID *uuid.UUID `gorm:"column:owner_profile_id;type:uuid" json:"owner_profile_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (InviteCode) TableName() string {
	return "invite_codes"
}

func (i *InviteCode) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Exhausted reports whether every use of the code has been consumed.
func (i *InviteCode) Exhausted() bool {
	return i.CurrentUses >= i.MaxUses
}

// ExpiredAt reports whether the code has expired at the given instant.
func (i *InviteCode) ExpiredAt(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// UsableAt reports whether the code may admit a guest at the given instant.
func (i *InviteCode) UsableAt(now time.Time) bool {
	return i.Active && !i.Exhausted() && !i.ExpiredAt(now)
}
