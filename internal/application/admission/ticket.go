package admission

import (
	"context"
	"time"

	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Ticket is what the confirmation page shows a guest.
type Ticket struct {
	RSVPID           uuid.UUID        `json:"rsvpId"`
	ConfirmationCode string           `json:"confirmationCode"`
	Status           string           `json:"status"`
	DietaryNotes     string           `json:"dietaryNotes,omitempty"`
	Drop             domain.Drop      `json:"drop"`
	GuestName        string           `json:"guestName"`
	GuestEmail       string           `json:"guestEmail"`
	QRCode           string           `json:"qrCode,omitempty"`
	CheckedInAt      *time.Time       `json:"checkedInAt,omitempty"`
	OtherGuests      []rsvps.Attendee `json:"otherGuests"`
}

// Ticket loads the confirmation view for an exact confirmation code.
func (s *Service) Ticket(ctx context.Context, code string) (*Ticket, error) {
	r, err := s.Ledger.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	t := &Ticket{
		RSVPID:           r.ID,
		ConfirmationCode: r.ConfirmationCode,
		Status:           r.Status,
		DietaryNotes:     r.DietaryNotes,
		OtherGuests:      []rsvps.Attendee{},
	}
	if r.Drop != nil {
		t.Drop = *r.Drop
	}
	if r.Profile != nil {
		t.GuestName = r.Profile.Name
		t.GuestEmail = r.Profile.Email
	}
	if r.Status != domain.RSVPConfirmed {
		return t, nil
	}

	if s.Checkins != nil {
		row, err := s.Checkins.ForReservation(ctx, r)
		if err != nil {
			log.Error().Err(err).Str("rsvp_id", r.ID.String()).Msg("ticket qr unavailable")
		} else {
			t.QRCode = row.QRCode
			t.CheckedInAt = row.CheckedInAt
		}
	}
	others, err := s.Ledger.ConfirmedAttendees(ctx, r.DropID, r.UserID)
	if err != nil {
		return nil, err
	}
	t.OtherGuests = others
	return t, nil
}
