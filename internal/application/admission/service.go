package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"club25-backend/internal/application/checkin"
	"club25-backend/internal/application/drops"
	"club25-backend/internal/application/guests"
	"club25-backend/internal/application/invites"
	"club25-backend/internal/application/notifications"
	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/application/settings"
	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/locks"
	"club25-backend/internal/infrastructure/realtime"
	"club25-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	MessageConfirmed = "Your seat is confirmed! Check your email for details."
	MessageWaitlist  = "You're on the waitlist. We'll notify you if a spot opens."
)

var (
	ErrInviteRequired  = errors.New("Invite code required")
	ErrInviteInvalid   = errors.New("Invalid invite code")
	ErrInviteExhausted = errors.New("Invite code has reached usage limit")
	ErrInviteExpired   = errors.New("Invite code has expired")
	ErrDropUnavailable = rsvps.ErrDropUnavailable
)

// BypassError is returned when the bypass code is used to reserve. It never admits anyone.
type BypassError struct {
	RedirectTo string
}

func (e *BypassError) Error() string {
	return "This code does not reserve seats"
}

var fallbackLocker = &locks.LocalLocker{}

// Service runs the admission flow: invite, drop, identity, seat decision, consumption,
// then the post-commit side effects.
type Service struct {
	DB         *gorm.DB
	Invites    *invites.Service
	Drops      *drops.Service
	Guests     *guests.Resolver
	Ledger     *rsvps.Ledger
	Locker     locks.Locker
	Checkins   *checkin.Verifier
	Broker     realtime.Broker
	Dispatcher *notifications.Dispatcher
	Settings   *settings.Service
}

// Request is the public RSVP form.
type Request struct {
	DropSlug     string `json:"dropSlug" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	DietaryNotes string `json:"dietaryNotes"`
	InviteCode   string `json:"inviteCode"`
}

// Result is the public RSVP response.
type Result struct {
	RSVPID           uuid.UUID `json:"rsvpId"`
	ConfirmationCode string    `json:"confirmationCode"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
}

func (s *Service) locker() locks.Locker {
	if s.Locker != nil {
		return s.Locker
	}
	return fallbackLocker
}

func (s *Service) site(ctx context.Context) settings.Site {
	if s.Settings == nil {
		return settings.Defaults()
	}
	site, err := s.Settings.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("settings unavailable; using defaults")
		return settings.Defaults()
	}
	return site
}

// inviteError maps registry errors onto the RSVP form's wording.
func inviteError(err error) error {
	switch {
	case errors.Is(err, invites.ErrNotFound), errors.Is(err, invites.ErrInvalidFormat):
		return ErrInviteInvalid
	case errors.Is(err, invites.ErrExhausted):
		return ErrInviteExhausted
	case errors.Is(err, invites.ErrExpired):
		return ErrInviteExpired
	}
	return err
}

// Admit places a reservation. sessionInvite is the code the guest validated earlier in
// this session; it is used when the form carries none and is re-validated like any other.
func (s *Service) Admit(ctx context.Context, req Request, sessionInvite string) (*Result, error) {
	code := strings.TrimSpace(req.InviteCode)
	if code == "" {
		code = strings.TrimSpace(sessionInvite)
	}
	if code == "" {
		return nil, ErrInviteRequired
	}

	checked, err := s.Invites.Validate(ctx, code)
	if err != nil {
		return nil, inviteError(err)
	}
	if checked.IsBypass() {
		return nil, &BypassError{RedirectTo: checked.RedirectTo}
	}
	code = checked.Code

	req.Email = validation.NormalizeEmail(req.Email)
	req.Name = validation.NormalizeName(req.Name)
	req.DropSlug = strings.TrimSpace(req.DropSlug)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	drop, err := s.Drops.FindBySlug(ctx, s.DB, req.DropSlug)
	if err != nil {
		if errors.Is(err, drops.ErrNotFound) {
			return nil, ErrDropUnavailable
		}
		return nil, err
	}
	if !drop.AcceptsReservations() {
		return nil, ErrDropUnavailable
	}

	guestID, err := s.Guests.Resolve(ctx, guests.ResolveInput{
		Email:         req.Email,
		Name:          req.Name,
		Phone:         req.Phone,
		InvitedByCode: code,
	})
	if err != nil {
		return nil, err
	}

	site := s.site(ctx)
	release, err := s.locker().Acquire(ctx, "drop:"+drop.ID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire drop lock: %w", err)
	}
	var rsvp *domain.RSVP
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.Ledger.Create(ctx, tx, rsvps.CreateInput{
			GuestID:       guestID,
			DropID:        drop.ID,
			DietaryNotes:  req.DietaryNotes,
			InviteCode:    code,
			AllowWaitlist: site.AllowWaitlist,
			MaxWaitlist:   site.MaxWaitlistSize,
		})
		if err != nil {
			return err
		}
		if err := s.Invites.Consume(ctx, tx, code); err != nil {
			return inviteError(err)
		}
		rsvp = created
		return nil
	})
	if errors.Is(err, rsvps.ErrWaitlistClosed) {
		// full with no room to wait: nobody else gets in
		if serr := drops.MarkSoldOut(ctx, s.DB, drop.ID); serr != nil {
			log.Error().Err(serr).Str("drop", drop.Slug).Msg("mark drop sold out failed")
		}
	}
	release()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("rsvp_id", rsvp.ID.String()).
		Str("drop", drop.Slug).
		Str("status", rsvp.Status).
		Str("invite_code", code).
		Msg("reservation created")

	s.afterCommit(ctx, rsvp, drop, site)

	res := &Result{
		RSVPID:           rsvp.ID,
		ConfirmationCode: rsvp.ConfirmationCode,
		Status:           rsvp.Status,
		Message:          MessageConfirmed,
	}
	if rsvp.Status == domain.RSVPWaitlist {
		res.Message = MessageWaitlist
	}
	return res, nil
}

// afterCommit runs side effects that must never fail the reservation.
func (s *Service) afterCommit(ctx context.Context, rsvp *domain.RSVP, drop *domain.Drop, site settings.Site) {
	if s.Checkins != nil {
		s.Checkins.PrepareBestEffort(ctx, rsvp)
	}
	guest, err := s.Guests.ByID(ctx, rsvp.UserID)
	if err != nil {
		log.Error().Err(err).Str("rsvp_id", rsvp.ID.String()).Msg("guest lookup after reservation failed")
		return
	}
	realtime.Publish(ctx, s.Broker, realtime.Event{
		Type:      realtime.EventRSVPCreated,
		DropID:    drop.ID.String(),
		RSVPID:    rsvp.ID.String(),
		GuestName: FirstName(guest.Name),
		Status:    rsvp.Status,
	})
	if site.SendConfirmationEmails {
		s.Dispatcher.Notify(ctx, notifications.ConfirmationJob(rsvp, drop, guest))
	}
}

// ChangeStatus is the back-office status edit. Promotion off the waitlist e-mails the guest.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.RSVP, error) {
	current, err := s.Ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := s.locker().Acquire(ctx, "drop:"+current.DropID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire drop lock: %w", err)
	}
	rsvp, previous, err := s.Ledger.UpdateStatus(ctx, id, status)
	release()
	if err != nil {
		return nil, err
	}
	if previous == status {
		return rsvp, nil
	}

	name := ""
	if rsvp.Profile != nil {
		name = FirstName(rsvp.Profile.Name)
	}
	realtime.Publish(ctx, s.Broker, realtime.Event{
		Type:      realtime.EventRSVPStatusChanged,
		DropID:    rsvp.DropID.String(),
		RSVPID:    rsvp.ID.String(),
		GuestName: name,
		Status:    status,
		Previous:  previous,
	})
	if previous == domain.RSVPWaitlist && status == domain.RSVPConfirmed {
		if s.Checkins != nil {
			s.Checkins.PrepareBestEffort(ctx, rsvp)
		}
		s.Dispatcher.Notify(ctx, notifications.PromotionJob(rsvp, rsvp.Drop, rsvp.Profile))
	}
	return rsvp, nil
}

// FirstName returns the first word of a display name.
func FirstName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
