package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation states.
const (
	RSVPConfirmed = "confirmed"
	RSVPWaitlist  = "waitlist"
	RSVPCancelled = "cancelled"
)

// ValidRSVPStatuses lists every accepted reservation status.
var ValidRSVPStatuses = []string{RSVPConfirmed, RSVPWaitlist, RSVPCancelled}

// RSVP is a guest's claim on a seat (or waitlist spot) for one drop.
type RSVP struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	DropID           uuid.UUID  `gorm:"column:drop_id;type:uuid;not null;index" json:"drop_id"`
	Status           string     `gorm:"column:status;not null;index" json:"status"`
	ConfirmationCode string     `gorm:"column:confirmation_code;not null;uniqueIndex" json:"confirmation_code"`
	DietaryNotes     string     `gorm:"column:dietary_notes" json:"dietary_notes"`
	UsedInviteCode   string     `gorm:"column:used_invite_code;index" json:"used_invite_code"`
	ReminderSentAt   *time.Time `gorm:"column:reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Drop    *Drop    `gorm:"foreignKey:DropID" json:"drop,omitempty"`
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsValidRSVPStatus returns true if status is a known reservation state.
func IsValidRSVPStatus(status string) bool {
	for _, s := range ValidRSVPStatuses {
		if s == status {
			return true
		}
	}
	return false
}
