package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"club25-backend/internal/application/checkin"
	"club25-backend/internal/application/drops"
	"club25-backend/internal/application/guests"
	"club25-backend/internal/application/invites"
	"club25-backend/internal/application/notifications"
	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/application/settings"
	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/infrastructure/locks"
	"club25-backend/internal/infrastructure/realtime"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	svc    *Service
	db     *gorm.DB
	queue  *notifications.MemoryQueue
	broker *realtime.LocalBroker
}

func newHarness(t *testing.T) *harness {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	q := &notifications.MemoryQueue{}
	b := realtime.NewLocalBroker()
	svc := &Service{
		DB:         db,
		Invites:    &invites.Service{DB: db},
		Drops:      &drops.Service{DB: db},
		Guests:     &guests.Resolver{DB: db, Provider: guests.LocalIdentity{}},
		Ledger:     &rsvps.Ledger{DB: db},
		Locker:     &locks.LocalLocker{Wait: 10 * time.Second},
		Checkins:   &checkin.Verifier{DB: db},
		Broker:     b,
		Dispatcher: &notifications.Dispatcher{Queue: q},
		Settings:   &settings.Service{DB: db},
	}
	return &harness{svc: svc, db: db, queue: q, broker: b}
}

func (h *harness) drop(t *testing.T, slug string, seats int) domain.Drop {
	d := domain.Drop{Slug: slug, Title: "Drop " + slug, DateTime: time.Now().UTC().Add(96 * time.Hour), SeatLimit: seats, Status: domain.DropAnnounced}
	require.NoError(t, h.db.Create(&d).Error)
	return d
}

func (h *harness) invite(t *testing.T, code string, max, current int) {
	i := domain.InviteCode{Code: code, MaxUses: max, CurrentUses: current, Active: true, Source: domain.InviteSourceAdmin}
	require.NoError(t, h.db.Create(&i).Error)
}

func (h *harness) uses(t *testing.T, code string) int {
	var i domain.InviteCode
	require.NoError(t, h.db.Where("code = ?", code).First(&i).Error)
	return i.CurrentUses
}

func (h *harness) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	var n int64
	require.NoError(t, h.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestAdmit_AliceConfirmedBobWaitlisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	drop := h.drop(t, "first-supper", 1)
	h.invite(t, "CLUB-TEST", 5, 0)

	events, cancel, err := h.broker.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	alice, err := h.svc.Admit(ctx, Request{DropSlug: "first-supper", Name: "Alice Smith", Email: "alice@example.com", InviteCode: "club-test"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPConfirmed, alice.Status)
	assert.Equal(t, MessageConfirmed, alice.Message)
	assert.True(t, rsvps.IsConfirmationCode(alice.ConfirmationCode))

	bob, err := h.svc.Admit(ctx, Request{DropSlug: "first-supper", Name: "Bob", Email: "bob@example.com", InviteCode: "CLUB-TEST"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPWaitlist, bob.Status)
	assert.Equal(t, MessageWaitlist, bob.Message)

	var after domain.Drop
	require.NoError(t, h.db.Where("id = ?", drop.ID).First(&after).Error)
	assert.Equal(t, domain.DropSoldOut, after.Status)
	assert.Equal(t, 2, h.uses(t, "CLUB-TEST"))

	var profile domain.Profile
	require.NoError(t, h.db.Where("email = ?", "alice@example.com").First(&profile).Error)
	require.NotNil(t, profile.InvitedByCode)
	assert.Equal(t, "CLUB-TEST", *profile.InvitedByCode)

	// both reservations got a stored door QR
	assert.Equal(t, int64(2), h.count(t, &domain.Checkin{}, "drop_id = ? AND qr_code <> ''", drop.ID))

	ready, _ := h.queue.Len()
	assert.Equal(t, 2, ready)

	first := <-events
	assert.Equal(t, realtime.EventRSVPCreated, first.Type)
	assert.Equal(t, "Alice", first.GuestName)
	second := <-events
	assert.Equal(t, domain.RSVPWaitlist, second.Status)

	// the drop is sold out now
	_, err = h.svc.Admit(ctx, Request{DropSlug: "first-supper", Name: "Carol", Email: "carol@example.com", InviteCode: "CLUB-TEST"}, "")
	assert.ErrorIs(t, err, ErrDropUnavailable)
	assert.Equal(t, 2, h.uses(t, "CLUB-TEST"))
}

func TestAdmit_InviteChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "spring", 10)
	h.invite(t, "CLUB-FULL", 2, 2)
	h.invite(t, "CLUB-OPEN", 5, 0)
	req := Request{DropSlug: "spring", Name: "Dana", Email: "dana@example.com"}

	_, err := h.svc.Admit(ctx, req, "")
	assert.ErrorIs(t, err, ErrInviteRequired)

	req.InviteCode = "CLUB-NOPE"
	_, err = h.svc.Admit(ctx, req, "")
	assert.ErrorIs(t, err, ErrInviteInvalid)

	req.InviteCode = "CLUB-FULL"
	_, err = h.svc.Admit(ctx, req, "")
	assert.ErrorIs(t, err, ErrInviteExhausted)

	req.InviteCode = invites.BypassCode
	_, err = h.svc.Admit(ctx, req, "")
	var bypass *BypassError
	require.ErrorAs(t, err, &bypass)
	assert.Equal(t, invites.BypassRedirect, bypass.RedirectTo)

	assert.Zero(t, h.count(t, &domain.RSVP{}, "1 = 1"))
	assert.Zero(t, h.count(t, &domain.Profile{}, "1 = 1"))

	// the session code is used when the form has none
	req.InviteCode = ""
	res, err := h.svc.Admit(ctx, req, "club-open")
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPConfirmed, res.Status)
	assert.Equal(t, 1, h.uses(t, "CLUB-OPEN"))
}

func TestAdmit_FormValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "summer", 10)
	h.invite(t, "CLUB-OPEN", 5, 0)

	_, err := h.svc.Admit(ctx, Request{DropSlug: "summer", Name: "Eve", Email: "not-an-email", InviteCode: "CLUB-OPEN"}, "")
	require.Error(t, err)
	assert.Equal(t, "Invalid email address", err.Error())

	_, err = h.svc.Admit(ctx, Request{DropSlug: "nowhere", Name: "Eve", Email: "eve@example.com", InviteCode: "CLUB-OPEN"}, "")
	assert.ErrorIs(t, err, ErrDropUnavailable)
	assert.Equal(t, 0, h.uses(t, "CLUB-OPEN"))
}

func TestAdmit_DuplicateRollsBackInviteUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "autumn", 10)
	h.invite(t, "CLUB-OPEN", 5, 0)
	req := Request{DropSlug: "autumn", Name: "Frank", Email: "frank@example.com", InviteCode: "CLUB-OPEN"}

	_, err := h.svc.Admit(ctx, req, "")
	require.NoError(t, err)

	req.Email = "FRANK@example.com "
	_, err = h.svc.Admit(ctx, req, "")
	var dup *rsvps.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, domain.RSVPConfirmed, dup.Status)

	assert.Equal(t, 1, h.uses(t, "CLUB-OPEN"))
	assert.Equal(t, int64(1), h.count(t, &domain.RSVP{}, "1 = 1"))
}

func TestAdmit_ConcurrentLastSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	drop := h.drop(t, "last-seat", 1)
	h.invite(t, "CLUB-MANY", 100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.svc.Admit(ctx, Request{
				DropSlug:   "last-seat",
				Name:       fmt.Sprintf("Guest %d", i),
				Email:      fmt.Sprintf("guest%d@example.com", i),
				InviteCode: "CLUB-MANY",
			}, "")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), h.count(t, &domain.RSVP{}, "drop_id = ? AND status = ?", drop.ID, domain.RSVPConfirmed))
	total := h.count(t, &domain.RSVP{}, "drop_id = ?", drop.ID)
	assert.Equal(t, int64(h.uses(t, "CLUB-MANY")), total)
}

func TestAdmit_ConcurrentSingleUseCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.invite(t, "CLUB-ONCE", 1, 0)
	for i := 0; i < 8; i++ {
		h.drop(t, fmt.Sprintf("night-%d", i), 10)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.svc.Admit(ctx, Request{
				DropSlug:   fmt.Sprintf("night-%d", i),
				Name:       "Guest",
				Email:      fmt.Sprintf("once%d@example.com", i),
				InviteCode: "CLUB-ONCE",
			}, "")
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInviteExhausted)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, h.uses(t, "CLUB-ONCE"))
	assert.Equal(t, int64(1), h.count(t, &domain.RSVP{}, "1 = 1"))
}

func TestAdmit_HonoursSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "tiny", 1)
	h.invite(t, "CLUB-OPEN", 5, 0)
	_, err := h.svc.Settings.Update(ctx, []byte(`{"allowWaitlist":false,"sendConfirmationEmails":false}`))
	require.NoError(t, err)

	_, err = h.svc.Admit(ctx, Request{DropSlug: "tiny", Name: "Gia", Email: "gia@example.com", InviteCode: "CLUB-OPEN"}, "")
	require.NoError(t, err)
	_, err = h.svc.Admit(ctx, Request{DropSlug: "tiny", Name: "Hal", Email: "hal@example.com", InviteCode: "CLUB-OPEN"}, "")
	assert.ErrorIs(t, err, rsvps.ErrWaitlistClosed)

	var drop domain.Drop
	require.NoError(t, h.db.Where("slug = ?", "tiny").First(&drop).Error)
	assert.Equal(t, domain.DropSoldOut, drop.Status)

	ready, _ := h.queue.Len()
	assert.Zero(t, ready)
	assert.Equal(t, 1, h.uses(t, "CLUB-OPEN"))
}

func TestChangeStatus_PromotionNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "winter", 1)
	h.invite(t, "CLUB-OPEN", 5, 0)

	_, err := h.svc.Admit(ctx, Request{DropSlug: "winter", Name: "Ivy", Email: "ivy@example.com", InviteCode: "CLUB-OPEN"}, "")
	require.NoError(t, err)
	waiting, err := h.svc.Admit(ctx, Request{DropSlug: "winter", Name: "Jon Snow", Email: "jon@example.com", InviteCode: "CLUB-OPEN"}, "")
	require.NoError(t, err)

	// drain the two confirmation jobs
	for i := 0; i < 2; i++ {
		job, err := h.queue.Dequeue(ctx, 0)
		require.NoError(t, err)
		require.NotNil(t, job)
	}

	events, cancel, err := h.broker.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	r, err := h.svc.ChangeStatus(ctx, waiting.RSVPID, domain.RSVPConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPConfirmed, r.Status)

	job, err := h.queue.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, notifications.KindWaitlistPromoted, job.Kind)
	assert.Equal(t, "jon@example.com", job.To)

	e := <-events
	assert.Equal(t, realtime.EventRSVPStatusChanged, e.Type)
	assert.Equal(t, domain.RSVPWaitlist, e.Previous)
	assert.Equal(t, "Jon", e.GuestName)

	_, err = h.svc.ChangeStatus(ctx, waiting.RSVPID, "maybe")
	assert.ErrorIs(t, err, rsvps.ErrInvalidStatus)
}

func TestTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.drop(t, "gala", 5)
	h.invite(t, "CLUB-OPEN", 5, 0)

	a, err := h.svc.Admit(ctx, Request{DropSlug: "gala", Name: "Kim Lee", Email: "kim@example.com", InviteCode: "CLUB-OPEN", DietaryNotes: "vegan"}, "")
	require.NoError(t, err)
	_, err = h.svc.Admit(ctx, Request{DropSlug: "gala", Name: "Lou Reed", Email: "lou@example.com", InviteCode: "CLUB-OPEN"}, "")
	require.NoError(t, err)

	ticket, err := h.svc.Ticket(ctx, a.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, "Kim Lee", ticket.GuestName)
	assert.Equal(t, "gala", ticket.Drop.Slug)
	assert.Equal(t, "vegan", ticket.DietaryNotes)
	assert.NotEmpty(t, ticket.QRCode)
	assert.Nil(t, ticket.CheckedInAt)
	assert.Equal(t, []rsvps.Attendee{{Name: "Lou"}}, ticket.OtherGuests)

	_, err = h.svc.Ticket(ctx, "C25-NONE-NONE")
	assert.ErrorIs(t, err, rsvps.ErrNotFound)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Alice", FirstName(" Alice Smith "))
	assert.Equal(t, "Cher", FirstName("Cher"))
	assert.Equal(t, "", FirstName(""))
}
