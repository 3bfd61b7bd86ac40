package drops

import (
	"context"
	"testing"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDrops(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func seedDrop(t *testing.T, db *gorm.DB, slug, status string, seats int, at time.Time) *domain.Drop {
	d := &domain.Drop{Slug: slug, Title: slug, Status: status, SeatLimit: seats, DateTime: at}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedRSVP(t *testing.T, db *gorm.DB, dropID uuid.UUID, status string) {
	r := &domain.RSVP{UserID: uuid.New(), DropID: dropID, Status: status, ConfirmationCode: "C25-" + uuid.NewString()[:9]}
	require.NoError(t, db.Create(r).Error)
}

func TestPlacement(t *testing.T) {
	assert.Equal(t, domain.RSVPConfirmed, Placement(0, 1))
	assert.Equal(t, domain.RSVPConfirmed, Placement(24, 25))
	assert.Equal(t, domain.RSVPWaitlist, Placement(25, 25))
	assert.Equal(t, domain.RSVPWaitlist, Placement(30, 25))
	assert.Equal(t, 0, SeatsRemaining(2, 3))
	assert.Equal(t, 5, SeatsRemaining(7, 2))
}

func TestCurrent_SoonestOpenDrop(t *testing.T) {
	s, db := setupDrops(t)
	ctx := context.Background()

	v, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	now := time.Now().UTC()
	seedDrop(t, db, "later", domain.DropAnnounced, 10, now.Add(72*time.Hour))
	soon := seedDrop(t, db, "soon", domain.DropSoldOut, 2, now.Add(24*time.Hour))
	seedDrop(t, db, "draft", domain.DropDraft, 10, now.Add(time.Hour))
	seedRSVP(t, db, soon.ID, domain.RSVPConfirmed)
	seedRSVP(t, db, soon.ID, domain.RSVPConfirmed)
	seedRSVP(t, db, soon.ID, domain.RSVPWaitlist)
	seedRSVP(t, db, soon.ID, domain.RSVPCancelled)

	v, err = s.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "soon", v.Slug)
	assert.Equal(t, int64(2), v.ConfirmedCount)
	assert.Equal(t, int64(1), v.WaitlistCount)
	assert.Equal(t, 0, v.SeatsRemaining)
	assert.Equal(t, 2, v.TotalSeats)
}

func TestArchive_NewestFirst(t *testing.T) {
	s, db := setupDrops(t)
	now := time.Now().UTC()
	seedDrop(t, db, "first", domain.DropCompleted, 10, now.Add(-72*time.Hour))
	seedDrop(t, db, "second", domain.DropCompleted, 10, now.Add(-24*time.Hour))
	seedDrop(t, db, "open", domain.DropAnnounced, 10, now.Add(24*time.Hour))

	out, err := s.Archive(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "second", out[0].Slug)
	assert.Equal(t, "first", out[1].Slug)
}

func TestBySlugAndGallery(t *testing.T) {
	s, db := setupDrops(t)
	ctx := context.Background()
	d := seedDrop(t, db, "night-one", domain.DropCompleted, 5, time.Now().UTC())
	seedRSVP(t, db, d.ID, domain.RSVPConfirmed)
	require.NoError(t, db.Create(&domain.Media{DropID: d.ID, URL: "https://cdn/a.jpg", Type: "image", Approved: true}).Error)
	require.NoError(t, db.Create(&domain.Media{DropID: d.ID, URL: "https://cdn/b.jpg", Type: "image", Approved: false}).Error)

	v, err := s.BySlug(ctx, "night-one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ConfirmedCount)
	assert.Equal(t, 4, v.SeatsRemaining)
	require.Len(t, v.Media, 1)
	assert.Equal(t, "https://cdn/a.jpg", v.Media[0].URL)

	media, err := s.Gallery(ctx, "night-one")
	require.NoError(t, err)
	assert.Len(t, media, 1)

	_, err = s.BySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Gallery(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUpdateDelete(t *testing.T) {
	s, db := setupDrops(t)
	ctx := context.Background()
	at := time.Now().Add(96 * time.Hour)

	d, err := s.Create(ctx, Input{Title: "  First   Night ", Slug: "First-Night", DateTime: at, SeatLimit: 25})
	require.NoError(t, err)
	assert.Equal(t, "First Night", d.Title)
	assert.Equal(t, "first-night", d.Slug)
	assert.Equal(t, domain.DropDraft, d.Status)

	_, err = s.Create(ctx, Input{Title: "Dup", Slug: "first-night", DateTime: at, SeatLimit: 10})
	assert.ErrorIs(t, err, ErrSlugTaken)
	_, err = s.Create(ctx, Input{Title: "Bad", Slug: "bad slug", DateTime: at, SeatLimit: 10})
	assert.Error(t, err)
	_, err = s.Create(ctx, Input{Title: "Zero", Slug: "zero", DateTime: at, SeatLimit: 0})
	assert.Error(t, err)

	updated, err := s.Update(ctx, d.ID, Input{Title: "First Night", Slug: "first-night", DateTime: at, SeatLimit: 30, Status: domain.DropAnnounced})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.SeatLimit)
	assert.Equal(t, domain.DropAnnounced, updated.Status)

	_, err = s.SetStatus(ctx, d.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	done, err := s.SetStatus(ctx, d.ID, domain.DropCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.DropCompleted, done.Status)

	seedRSVP(t, db, d.ID, domain.RSVPConfirmed)
	require.NoError(t, s.Delete(ctx, d.ID))
	var n int64
	require.NoError(t, db.Model(&domain.RSVP{}).Where("drop_id = ?", d.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.ErrorIs(t, s.Delete(ctx, d.ID), ErrNotFound)
}

func TestMarkSoldOut_OnlyFromAnnounced(t *testing.T) {
	_, db := setupDrops(t)
	ctx := context.Background()
	open := seedDrop(t, db, "open", domain.DropAnnounced, 1, time.Now().UTC())
	done := seedDrop(t, db, "done", domain.DropCompleted, 1, time.Now().UTC())

	require.NoError(t, MarkSoldOut(ctx, db, open.ID))
	require.NoError(t, MarkSoldOut(ctx, db, done.ID))

	var gotOpen, gotDone domain.Drop
	require.NoError(t, db.First(&gotOpen, "id = ?", open.ID).Error)
	assert.Equal(t, domain.DropSoldOut, gotOpen.Status)
	require.NoError(t, db.First(&gotDone, "id = ?", done.ID).Error)
	assert.Equal(t, domain.DropCompleted, gotDone.Status)
}
