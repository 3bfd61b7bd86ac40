package drops

import (
	"context"
	"errors"
	"strings"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("Drop not found")
	ErrSlugTaken     = errors.New("A drop with this slug already exists")
	ErrInvalidStatus = errors.New("Invalid drop status")
)

// Service serves drop listings and the admin drop editor.
type Service struct {
	DB *gorm.DB
}

// View is a drop with its live seat counts.
type View struct {
	domain.Drop
	SeatsRemaining int            `json:"seatsRemaining"`
	TotalSeats     int            `json:"totalSeats"`
	ConfirmedCount int64          `json:"confirmedCount"`
	WaitlistCount  int64          `json:"waitlistCount"`
	Media          []domain.Media `json:"media,omitempty"`
}

func newView(d domain.Drop, snap Snapshot) View {
	return View{
		Drop:           d,
		SeatsRemaining: SeatsRemaining(d.SeatLimit, snap.Confirmed),
		TotalSeats:     d.SeatLimit,
		ConfirmedCount: snap.Confirmed,
		WaitlistCount:  snap.Waitlist,
	}
}

// Current returns the soonest announced or sold-out drop, or nil when there is none.
func (s *Service) Current(ctx context.Context) (*View, error) {
	var d domain.Drop
	err := s.DB.WithContext(ctx).
		Where("status IN ?", []string{domain.DropAnnounced, domain.DropSoldOut}).
		Order("date_time ASC").
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	snaps, err := Snapshots(ctx, s.DB, d.ID)
	if err != nil {
		return nil, err
	}
	v := newView(d, snaps[d.ID])
	return &v, nil
}

// Archive returns completed drops, newest first.
func (s *Service) Archive(ctx context.Context) ([]domain.Drop, error) {
	out := []domain.Drop{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", domain.DropCompleted).
		Order("date_time DESC").
		Find(&out).Error
	return out, err
}

// BySlug returns a drop with approved media and seat counts.
func (s *Service) BySlug(ctx context.Context, slug string) (*View, error) {
	d, err := s.findBySlug(ctx, s.DB, slug)
	if err != nil {
		return nil, err
	}
	snaps, err := Snapshots(ctx, s.DB, d.ID)
	if err != nil {
		return nil, err
	}
	v := newView(*d, snaps[d.ID])
	media, err := s.approvedMedia(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	v.Media = media
	return &v, nil
}

// Gallery returns approved media for a drop, newest first.
func (s *Service) Gallery(ctx context.Context, slug string) ([]domain.Media, error) {
	d, err := s.findBySlug(ctx, s.DB, slug)
	if err != nil {
		return nil, err
	}
	return s.approvedMedia(ctx, d.ID)
}

// FindBySlug loads a drop by slug using db (which may be a transaction).
func (s *Service) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Drop, error) {
	return s.findBySlug(ctx, db, slug)
}

func (s *Service) findBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Drop, error) {
	var d domain.Drop
	if err := db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) approvedMedia(ctx context.Context, dropID uuid.UUID) ([]domain.Media, error) {
	out := []domain.Media{}
	err := s.DB.WithContext(ctx).
		Where("drop_id = ? AND approved = ?", dropID, true).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Get loads a drop by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Drop, error) {
	var d domain.Drop
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns every drop with seat counts, soonest first.
func (s *Service) List(ctx context.Context) ([]View, error) {
	var ds []domain.Drop
	if err := s.DB.WithContext(ctx).Order("date_time ASC").Find(&ds).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	snaps, err := Snapshots(ctx, s.DB, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(ds))
	for _, d := range ds {
		out = append(out, newView(d, snaps[d.ID]))
	}
	return out, nil
}

// Input is the admin drop form.
type Input struct {
	Title       string    `json:"title" validate:"required"`
	Slug        string    `json:"slug" validate:"required,slug"`
	DateTime    time.Time `json:"date_time" validate:"required"`
	SeatLimit   int       `json:"seat_limit" validate:"gte=1"`
	Status      string    `json:"status" validate:"omitempty,oneof=draft announced sold_out completed cancelled"`
	Description string    `json:"description"`
	ShortCopy   string    `json:"short_copy"`
	Location    string    `json:"location"`
}

func (in *Input) normalize() {
	in.Title = validation.NormalizeName(in.Title)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.Status == "" {
		in.Status = domain.DropDraft
	}
}

// Create adds a new drop.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Drop, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	d := domain.Drop{
		Slug:        in.Slug,
		Title:       in.Title,
		DateTime:    in.DateTime.UTC(),
		SeatLimit:   in.SeatLimit,
		Status:      in.Status,
		Description: in.Description,
		ShortCopy:   in.ShortCopy,
		Location:    in.Location,
	}
	if err := s.DB.WithContext(ctx).Create(&d).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &d, nil
}

// Update replaces the editable fields of a drop.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*domain.Drop, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Title = in.Title
	d.Slug = in.Slug
	d.DateTime = in.DateTime.UTC()
	d.SeatLimit = in.SeatLimit
	d.Status = in.Status
	d.Description = in.Description
	d.ShortCopy = in.ShortCopy
	d.Location = in.Location
	if err := s.DB.WithContext(ctx).Save(d).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return d, nil
}

// SetStatus moves a drop to another lifecycle state.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Drop, error) {
	if !domain.IsValidDropStatus(status) {
		return nil, ErrInvalidStatus
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(d).Update("status", status).Error; err != nil {
		return nil, err
	}
	d.Status = status
	return d, nil
}

// Delete removes a drop and everything attached to it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Drop{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		for _, model := range []interface{}{&domain.Checkin{}, &domain.Media{}, &domain.RSVP{}} {
			if err := tx.Where("drop_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&domain.Drop{}).Error
	})
}

// MarkSoldOut flips an announced drop to sold_out inside tx.
func MarkSoldOut(ctx context.Context, tx *gorm.DB, dropID uuid.UUID) error {
	return tx.WithContext(ctx).Model(&domain.Drop{}).
		Where("id = ? AND status = ?", dropID, domain.DropAnnounced).
		Update("status", domain.DropSoldOut).Error
}
