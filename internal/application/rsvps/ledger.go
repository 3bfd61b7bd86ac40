package rsvps

import (
	"context"
	"errors"
	"strings"

	"club25-backend/internal/application/drops"
	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxCodeTries = 5

var (
	ErrDropUnavailable = errors.New("Drop not available")
	ErrWaitlistClosed  = errors.New("This drop is full")
	ErrNotFound        = errors.New("RSVP not found")
	ErrInvalidStatus   = errors.New("Invalid RSVP status")
	ErrCodeExhausted   = errors.New("could not allocate a unique confirmation code")
)

// DuplicateError means the guest already holds a live reservation for the drop.
type DuplicateError struct {
	Status string
}

func (e *DuplicateError) Error() string {
	return "You already have an RSVP for this drop"
}

// Ledger owns reservation rows.
type Ledger struct {
	DB *gorm.DB
}

// CreateInput carries everything needed to place one reservation.
type CreateInput struct {
	GuestID       uuid.UUID
	DropID        uuid.UUID
	DietaryNotes  string
	InviteCode    string
	AllowWaitlist bool
	MaxWaitlist   int // 0 means unlimited
}

// Create places a reservation inside tx. The caller holds the drop's admission lock,
// so the duplicate check, the seat count and the insert see a stable view.
func (l *Ledger) Create(ctx context.Context, tx *gorm.DB, in CreateInput) (*domain.RSVP, error) {
	tx = tx.WithContext(ctx)

	var drop domain.Drop
	if err := tx.Where("id = ?", in.DropID).First(&drop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDropUnavailable
		}
		return nil, err
	}
	if !drop.AcceptsReservations() {
		return nil, ErrDropUnavailable
	}

	var existing domain.RSVP
	err := tx.Where("user_id = ? AND drop_id = ? AND status <> ?", in.GuestID, in.DropID, domain.RSVPCancelled).
		First(&existing).Error
	if err == nil {
		return nil, &DuplicateError{Status: existing.Status}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	confirmed, err := drops.ConfirmedCount(ctx, tx, drop.ID)
	if err != nil {
		return nil, err
	}
	status := drops.Placement(confirmed, drop.SeatLimit)
	if status == domain.RSVPWaitlist {
		if !in.AllowWaitlist {
			return nil, ErrWaitlistClosed
		}
		if in.MaxWaitlist > 0 {
			waiting, err := drops.WaitlistCount(ctx, tx, drop.ID)
			if err != nil {
				return nil, err
			}
			if waiting >= int64(in.MaxWaitlist) {
				return nil, ErrWaitlistClosed
			}
		}
	}

	code, err := l.freeCode(tx)
	if err != nil {
		return nil, err
	}
	rsvp := domain.RSVP{
		UserID:           in.GuestID,
		DropID:           drop.ID,
		Status:           status,
		ConfirmationCode: code,
		DietaryNotes:     strings.TrimSpace(in.DietaryNotes),
		UsedInviteCode:   in.InviteCode,
	}
	if err := tx.Create(&rsvp).Error; err != nil {
		return nil, err
	}
	if status == domain.RSVPWaitlist {
		if err := drops.MarkSoldOut(ctx, tx, drop.ID); err != nil {
			return nil, err
		}
	}
	rsvp.Drop = &drop
	return &rsvp, nil
}

// freeCode draws codes until one is not in use. The unique index still backs this up.
func (l *Ledger) freeCode(tx *gorm.DB) (string, error) {
	for i := 0; i < maxCodeTries; i++ {
		code, err := GenerateConfirmationCode()
		if err != nil {
			return "", err
		}
		var n int64
		if err := tx.Model(&domain.RSVP{}).Where("confirmation_code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// Lookup returns the reservation with exactly this confirmation code, with drop and guest.
func (l *Ledger) Lookup(ctx context.Context, code string) (*domain.RSVP, error) {
	var r domain.RSVP
	err := l.DB.WithContext(ctx).Preload("Drop").Preload("Profile").
		Where("confirmation_code = ?", strings.TrimSpace(code)).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Get loads a reservation by id with drop and guest.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*domain.RSVP, error) {
	var r domain.RSVP
	err := l.DB.WithContext(ctx).Preload("Drop").Preload("Profile").Where("id = ?", id).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ForGuest lists a guest's reservations, newest first.
func (l *Ledger) ForGuest(ctx context.Context, guestID uuid.UUID) ([]domain.RSVP, error) {
	out := []domain.RSVP{}
	err := l.DB.WithContext(ctx).Preload("Drop").
		Where("user_id = ?", guestID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Attendee is the public view of another confirmed guest.
type Attendee struct {
	Name string `json:"name"`
}

// ConfirmedAttendees lists first names of confirmed guests for a drop, excluding one guest.
func (l *Ledger) ConfirmedAttendees(ctx context.Context, dropID, exclude uuid.UUID) ([]Attendee, error) {
	var names []string
	err := l.DB.WithContext(ctx).Model(&domain.Profile{}).
		Joins("JOIN rsvps ON rsvps.user_id = profiles.id").
		Where("rsvps.drop_id = ? AND rsvps.status = ? AND profiles.id <> ?", dropID, domain.RSVPConfirmed, exclude).
		Order("rsvps.created_at ASC").
		Pluck("profiles.name", &names).Error
	if err != nil {
		return nil, err
	}
	out := make([]Attendee, 0, len(names))
	for _, n := range names {
		first := n
		if i := strings.IndexByte(n, ' '); i > 0 {
			first = n[:i]
		}
		out = append(out, Attendee{Name: first})
	}
	return out, nil
}

// GuestFilter narrows the admin guest list.
type GuestFilter struct {
	DropID *uuid.UUID
	Status string
	Search string
}

// ListGuests returns reservations with drop and guest for the back office.
func (l *Ledger) ListGuests(ctx context.Context, f GuestFilter) ([]domain.RSVP, error) {
	q := l.DB.WithContext(ctx).Preload("Drop").Preload("Profile").Order("created_at DESC")
	if f.DropID != nil {
		q = q.Where("drop_id = ?", *f.DropID)
	}
	if f.Status != "" {
		if !domain.IsValidRSVPStatus(f.Status) {
			return nil, ErrInvalidStatus
		}
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		matching := l.DB.Model(&domain.Profile{}).Select("id").
			Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		q = q.Where("(user_id IN (?) OR LOWER(confirmation_code) LIKE ?)", matching, like)
	}
	out := []domain.RSVP{}
	err := q.Find(&out).Error
	return out, err
}

// UpdateStatus sets a reservation's status and returns the previous one. A cancelled
// reservation cannot come back while the guest holds another live one for the drop.
func (l *Ledger) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.RSVP, string, error) {
	if !domain.IsValidRSVPStatus(status) {
		return nil, "", ErrInvalidStatus
	}
	r, err := l.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	previous := r.Status
	if previous == status {
		return r, previous, nil
	}
	if previous == domain.RSVPCancelled {
		var live domain.RSVP
		err := l.DB.WithContext(ctx).
			Where("user_id = ? AND drop_id = ? AND status <> ? AND id <> ?", r.UserID, r.DropID, domain.RSVPCancelled, r.ID).
			First(&live).Error
		if err == nil {
			return nil, "", &DuplicateError{Status: live.Status}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
	}
	if err := l.DB.WithContext(ctx).Model(&domain.RSVP{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, "", err
	}
	r.Status = status
	return r, previous, nil
}
