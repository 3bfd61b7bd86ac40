package notifications

import (
	"time"

	"club25-backend/internal/domain"

	"github.com/google/uuid"
)

// Job kinds.
const (
	KindRSVPConfirmation = "rsvp_confirmation"
	KindCheckinReminder  = "checkin_reminder"
	KindWaitlistPromoted = "waitlist_promoted"
	KindMagicLink        = "magic_link"
	KindEventRecap       = "event_recap"
)

// Job is one queued e-mail. It carries everything the template needs so the worker
// never reads the database.
type Job struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	To               string    `json:"to"`
	Name             string    `json:"name"`
	DropTitle        string    `json:"dropTitle,omitempty"`
	DropSlug         string    `json:"dropSlug,omitempty"`
	DropDate         time.Time `json:"dropDate,omitempty"`
	DropLocation     string    `json:"dropLocation,omitempty"`
	ConfirmationCode string    `json:"confirmationCode,omitempty"`
	Status           string    `json:"status,omitempty"`
	Link             string    `json:"link,omitempty"`
	Attempts         int       `json:"attempts"`
	EnqueuedAt       time.Time `json:"enqueuedAt"`
}

func reservationJob(kind string, rsvp *domain.RSVP, drop *domain.Drop, guest *domain.Profile) Job {
	j := Job{
		Kind:             kind,
		ConfirmationCode: rsvp.ConfirmationCode,
		Status:           rsvp.Status,
	}
	if guest != nil {
		j.To = guest.Email
		j.Name = guest.Name
	}
	if drop != nil {
		j.DropTitle = drop.Title
		j.DropSlug = drop.Slug
		j.DropDate = drop.DateTime
		j.DropLocation = drop.Location
	}
	return j
}

// ConfirmationJob is sent right after a reservation is placed (confirmed or waitlisted).
func ConfirmationJob(rsvp *domain.RSVP, drop *domain.Drop, guest *domain.Profile) Job {
	return reservationJob(KindRSVPConfirmation, rsvp, drop, guest)
}

// PromotionJob tells a waitlisted guest a seat is now theirs.
func PromotionJob(rsvp *domain.RSVP, drop *domain.Drop, guest *domain.Profile) Job {
	return reservationJob(KindWaitlistPromoted, rsvp, drop, guest)
}

// ReminderJob is the day-before reminder with the location reveal.
func ReminderJob(rsvp *domain.RSVP, drop *domain.Drop, guest *domain.Profile) Job {
	return reservationJob(KindCheckinReminder, rsvp, drop, guest)
}

// RecapJob follows a completed drop with a link to the gallery.
func RecapJob(rsvp *domain.RSVP, drop *domain.Drop, guest *domain.Profile) Job {
	return reservationJob(KindEventRecap, rsvp, drop, guest)
}

// MagicLinkJob carries a signed sign-in link.
func MagicLinkJob(guest *domain.Profile, link string) Job {
	return Job{Kind: KindMagicLink, To: guest.Email, Name: guest.Name, Link: link}
}

func (j *Job) stamp(now time.Time) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.EnqueuedAt.IsZero() {
		j.EnqueuedAt = now
	}
}
