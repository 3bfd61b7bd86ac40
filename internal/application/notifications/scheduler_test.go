package notifications

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

func setupScheduler(t *testing.T, now time.Time) (*Scheduler, *MemoryQueue, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	q := &MemoryQueue{}
	clock := func() time.Time { return now }
	return &Scheduler{DB: db, Dispatcher: &Dispatcher{Queue: q, Now: clock}, Now: clock}, q, db
}

func addReservation(t *testing.T, db *gorm.DB, drop domain.Drop, email, status, code string) {
	p := domain.Profile{ID: uuid.New(), Email: email, Name: "Guest " + email}
	require.NoError(t, db.Create(&p).Error)
	r := domain.RSVP{UserID: p.ID, DropID: drop.ID, Status: status, ConfirmationCode: code}
	require.NoError(t, db.Create(&r).Error)
}

func TestSendReminders_OncePerReservation(t *testing.T) {
	now := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)
	s, q, db := setupScheduler(t, now)
	ctx := context.Background()

	soon := domain.Drop{Slug: "soon", Title: "Soon", DateTime: now.Add(20 * time.Hour), SeatLimit: 5, Status: domain.DropSoldOut, Location: "Rooftop"}
	later := domain.Drop{Slug: "later", Title: "Later", DateTime: now.Add(72 * time.Hour), SeatLimit: 5, Status: domain.DropAnnounced}
	require.NoError(t, db.Create(&soon).Error)
	require.NoError(t, db.Create(&later).Error)
	addReservation(t, db, soon, "a@x.com", domain.RSVPConfirmed, "C25-AAAA-AAAA")
	addReservation(t, db, soon, "b@x.com", domain.RSVPWaitlist, "C25-BBBB-BBBB")
	addReservation(t, db, later, "c@x.com", domain.RSVPConfirmed, "C25-CCCC-CCCC")

	n, err := s.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	job, err := q.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, KindCheckinReminder, job.Kind)
	assert.Equal(t, "a@x.com", job.To)
	assert.Equal(t, "Rooftop", job.DropLocation)
	assert.NotEmpty(t, job.ID)

	n, err = s.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendRecaps_ConfirmedGuestsOnly(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s, q, db := setupScheduler(t, now)
	ctx := context.Background()

	past := domain.Drop{Slug: "past", Title: "Past", DateTime: now.Add(-14 * time.Hour), SeatLimit: 5, Status: domain.DropCompleted}
	require.NoError(t, db.Create(&past).Error)
	addReservation(t, db, past, "a@x.com", domain.RSVPConfirmed, "C25-AAAA-AAAA")
	addReservation(t, db, past, "b@x.com", domain.RSVPConfirmed, "C25-BBBB-BBBB")
	addReservation(t, db, past, "c@x.com", domain.RSVPCancelled, "C25-CCCC-CCCC")

	n, err := s.SendRecaps(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	ready, _ := q.Len()
	assert.Equal(t, 2, ready)

	_, err = s.SendRecaps(ctx, uuid.New())
	assert.Error(t, err)
}
