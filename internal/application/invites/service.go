package invites

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// BypassCode validates without a lookup and sends the guest to a private page.
	BypassCode     = "CLUB-ALISHBA"
	BypassRedirect = "/austin-alishba"

	MinCodeLength   = 4
	generatedPrefix = "CLUB-"
	generatedLength = 6
	generatedChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCreateTries  = 5
)

var (
	ErrInvalidFormat = errors.New("Invalid code format")
	ErrNotFound      = errors.New("Invalid or expired invite code")
	ErrExhausted     = errors.New("This code has reached its usage limit")
	ErrExpired       = errors.New("This code has expired")
	ErrCodeTaken     = errors.New("Invite code already exists")
	ErrInvalidSource = errors.New("Invalid invite source")
	ErrInvalidUses   = errors.New("max_uses must be at least 1")
)

// Service is the invite registry.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// ValidateResult is returned for a usable code.
type ValidateResult struct {
	Valid      bool               `json:"valid"`
	Code       string             `json:"code"`
	RedirectTo string             `json:"redirectTo,omitempty"`
	Invite     *domain.InviteCode `json:"-"`
}

// IsBypass reports whether the result came from the bypass code.
func (r *ValidateResult) IsBypass() bool {
	return r.RedirectTo != ""
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Validate checks a code without consuming it. Codes are matched case-insensitively.
func (s *Service) Validate(ctx context.Context, code string) (*ValidateResult, error) {
	upper := validation.NormalizeCode(code)
	if len([]rune(upper)) < MinCodeLength {
		return nil, ErrInvalidFormat
	}
	if upper == BypassCode {
		return &ValidateResult{Valid: true, Code: upper, RedirectTo: BypassRedirect}, nil
	}

	var invite domain.InviteCode
	err := s.DB.WithContext(ctx).Where("code = ? AND active = ?", upper, true).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invite.Exhausted() {
		return nil, ErrExhausted
	}
	if invite.ExpiredAt(s.now()) {
		return nil, ErrExpired
	}
	return &ValidateResult{Valid: true, Code: invite.Code, Invite: &invite}, nil
}

// Consume records one use of code inside tx. The increment is a single conditional
// UPDATE, so concurrent consumers can never push current_uses past max_uses.
func (s *Service) Consume(ctx context.Context, tx *gorm.DB, code string) error {
	upper := validation.NormalizeCode(code)
	now := s.now()
	res := tx.WithContext(ctx).Model(&domain.InviteCode{}).
		Where("code = ? AND active = ? AND current_uses < max_uses AND (expires_at IS NULL OR expires_at > ?)", upper, true, now).
		Updates(map[string]interface{}{
			"current_uses": gorm.Expr("current_uses + ?", 1),
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var invite domain.InviteCode
	if err := tx.WithContext(ctx).Where("code = ?", upper).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	switch {
	case !invite.Active:
		return ErrNotFound
	case invite.Exhausted():
		return ErrExhausted
	default:
		return ErrExpired
	}
}

// List returns every invite code, newest first.
func (s *Service) List(ctx context.Context) ([]domain.InviteCode, error) {
	var out []domain.InviteCode
	err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// CreateInput describes a new invite code. Empty Code generates CLUB-XXXXXX.
type CreateInput struct {
	Code           string
	MaxUses        int
	Source         string
	ExpiresInDays  int
	OwnerProfileID *uuid.UUID
}

// Create issues a new active invite code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.InviteCode, error) {
	if in.MaxUses < 1 {
		return nil, ErrInvalidUses
	}
	if in.Source == "" {
		in.Source = domain.InviteSourceAdmin
	}
	switch in.Source {
	case domain.InviteSourceAdmin, domain.InviteSourceFounder, domain.InviteSourceAttendee:
	default:
		return nil, ErrInvalidSource
	}
	var expiresAt *time.Time
	if in.ExpiresInDays > 0 {
		t := s.now().Add(time.Duration(in.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	custom := validation.NormalizeCode(in.Code)
	if custom != "" && len([]rune(custom)) < MinCodeLength {
		return nil, ErrInvalidFormat
	}
	for attempt := 0; attempt < maxCreateTries; attempt++ {
		code := custom
		if code == "" {
			generated, err := generateCode()
			if err != nil {
				return nil, err
			}
			code = generated
		}
		invite := domain.InviteCode{
			Code:           code,
			MaxUses:        in.MaxUses,
			Active:         true,
			ExpiresAt:      expiresAt,
			Source:         in.Source,
			OwnerProfileID: in.OwnerProfileID,
		}
		err := s.DB.WithContext(ctx).Create(&invite).Error
		if err == nil {
			return &invite, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		if custom != "" {
			return nil, ErrCodeTaken
		}
	}
	return nil, ErrCodeTaken
}

// SetActive enables or disables a code.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.InviteCode, error) {
	var invite domain.InviteCode
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&invite).Update("active", active).Error; err != nil {
		return nil, err
	}
	invite.Active = active
	return &invite, nil
}

// Delete removes a code. Reservations keep the code text they were made with.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.InviteCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func generateCode() (string, error) {
	b := make([]byte, generatedLength)
	max := big.NewInt(int64(len(generatedChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = generatedChars[n.Int64()]
	}
	return generatedPrefix + string(b), nil
}
