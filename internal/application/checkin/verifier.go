package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/pkg/qr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidPayload = qr.ErrInvalidPayload
	ErrNotFound       = errors.New("Invalid QR code")
)

// NotConfirmedError is returned when the reservation exists but cannot be admitted.
type NotConfirmedError struct {
	Status string
}

func (e *NotConfirmedError) Error() string {
	return fmt.Sprintf("Cannot check in: Status is %s", e.Status)
}

// Guest is the door-list view of a checked-in guest.
type Guest struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DietaryNotes string    `json:"dietaryNotes,omitempty"`
}

// Result is returned to the scanner after a successful check-in.
type Result struct {
	Guest            Guest       `json:"guest"`
	Drop             domain.Drop `json:"drop"`
	ConfirmationCode string      `json:"confirmationCode"`
	CheckedInAt      time.Time   `json:"checkedInAt"`
}

// Verifier admits guests at the door and keeps the per-guest QR rows.
type Verifier struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

// Verify checks a scanned payload against the ledger and records arrival.
func (v *Verifier) Verify(ctx context.Context, payload string) (*Result, error) {
	p, userID, dropID, err := qr.Parse(payload)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	var rsvp domain.RSVP
	err = v.DB.WithContext(ctx).Preload("Drop").Preload("Profile").
		Where("confirmation_code = ? AND user_id = ? AND drop_id = ?", p.ConfirmationCode, userID, dropID).
		First(&rsvp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rsvp.Status != domain.RSVPConfirmed {
		return nil, &NotConfirmedError{Status: rsvp.Status}
	}

	now := v.now()
	row := domain.Checkin{
		UserID:      userID,
		DropID:      dropID,
		CheckedInAt: &now,
		QRPayload:   strings.TrimSpace(payload),
	}
	err = v.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "drop_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"checked_in_at": now, "updated_at": now}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("record checkin: %w", err)
	}

	res := &Result{ConfirmationCode: rsvp.ConfirmationCode, CheckedInAt: now}
	if rsvp.Drop != nil {
		res.Drop = *rsvp.Drop
	}
	if rsvp.Profile != nil {
		res.Guest = Guest{
			ID:           rsvp.Profile.ID,
			Name:         rsvp.Profile.Name,
			Email:        rsvp.Profile.Email,
			DietaryNotes: rsvp.DietaryNotes,
		}
	}
	return res, nil
}

// VerifyCode checks a guest in from a confirmation code typed at the door.
func (v *Verifier) VerifyCode(ctx context.Context, code string) (*Result, error) {
	var rsvp domain.RSVP
	err := v.DB.WithContext(ctx).Where("confirmation_code = ?", strings.TrimSpace(code)).First(&rsvp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	raw, err := qr.NewPayload(rsvp.ConfirmationCode, rsvp.UserID, rsvp.DropID).Encode()
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, raw)
}

// Prepare renders the door QR for a reservation and stores it without marking arrival.
// A later scan keeps the stored QR and only sets checked_in_at.
func (v *Verifier) Prepare(ctx context.Context, rsvp *domain.RSVP) (*domain.Checkin, error) {
	raw, err := qr.NewPayload(rsvp.ConfirmationCode, rsvp.UserID, rsvp.DropID).Encode()
	if err != nil {
		return nil, err
	}
	img, err := qr.DataURL(raw)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	row := domain.Checkin{
		UserID:    rsvp.UserID,
		DropID:    rsvp.DropID,
		QRPayload: raw,
		QRCode:    img,
	}
	err = v.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "drop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"qr_payload", "qr_code", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("store qr: %w", err)
	}
	return &row, nil
}

// PrepareBestEffort is Prepare for post-commit paths: failures are logged, never returned.
func (v *Verifier) PrepareBestEffort(ctx context.Context, rsvp *domain.RSVP) {
	if _, err := v.Prepare(ctx, rsvp); err != nil {
		log.Error().Err(err).Str("rsvp_id", rsvp.ID.String()).Msg("checkin qr pre-generation failed")
	}
}

// ForReservation returns the stored QR row for a reservation, generating it when missing.
func (v *Verifier) ForReservation(ctx context.Context, rsvp *domain.RSVP) (*domain.Checkin, error) {
	var row domain.Checkin
	err := v.DB.WithContext(ctx).Where("user_id = ? AND drop_id = ?", rsvp.UserID, rsvp.DropID).First(&row).Error
	if err == nil && row.QRCode != "" {
		return &row, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return v.Prepare(ctx, rsvp)
}

// Arrivals lists check-ins for a drop, most recent first.
func (v *Verifier) Arrivals(ctx context.Context, dropID uuid.UUID) ([]domain.Checkin, error) {
	out := []domain.Checkin{}
	err := v.DB.WithContext(ctx).
		Where("drop_id = ? AND checked_in_at IS NOT NULL", dropID).
		Order("checked_in_at DESC").
		Find(&out).Error
	return out, err
}
