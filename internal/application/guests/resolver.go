package guests

import (
	"context"
	"errors"
	"fmt"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailRequired = errors.New("Email is required")
	ErrNotFound      = errors.New("Guest not found")
)

// Resolver maps a guest email to a stable profile id, provisioning on first sight.
type Resolver struct {
	DB       *gorm.DB
	Provider IdentityProvider
}

// ResolveInput is the contact detail captured on the RSVP form.
type ResolveInput struct {
	Email         string
	Name          string
	Phone         string
	InvitedByCode string
}

// Resolve returns the id of the profile for in.Email. Existing profiles are returned
// unchanged; name and phone from later reservations are not written back.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (uuid.UUID, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" {
		return uuid.Nil, ErrEmailRequired
	}
	if p, err := r.ByEmail(ctx, email); err == nil {
		return p.ID, nil
	} else if !errors.Is(err, ErrNotFound) {
		return uuid.Nil, err
	}

	provider := r.Provider
	if provider == nil {
		provider = LocalIdentity{}
	}
	id, err := provider.CreateUser(ctx, email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("provision identity: %w", err)
	}

	profile := domain.Profile{
		ID:    id,
		Email: email,
		Name:  validation.NormalizeName(in.Name),
		Phone: in.Phone,
	}
	if in.InvitedByCode != "" {
		code := validation.NormalizeCode(in.InvitedByCode)
		profile.InvitedByCode = &code
	}
	if err := r.DB.WithContext(ctx).Create(&profile).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// a concurrent first reservation created it; use theirs
			if p, lookupErr := r.ByEmail(ctx, email); lookupErr == nil {
				return p.ID, nil
			}
		}
		return uuid.Nil, fmt.Errorf("create profile: %w", err)
	}
	return profile.ID, nil
}

// ByEmail finds a profile by (normalized) email.
func (r *Resolver) ByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.DB.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ByID finds a profile by id.
func (r *Resolver) ByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
