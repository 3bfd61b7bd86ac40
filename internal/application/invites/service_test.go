package invites

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInvites(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func seedInvite(t *testing.T, db *gorm.DB, code string, max, current int, active bool, expiresAt *time.Time) *domain.InviteCode {
	inv := &domain.InviteCode{Code: code, MaxUses: max, CurrentUses: current, Active: active, ExpiresAt: expiresAt, Source: domain.InviteSourceAdmin}
	require.NoError(t, db.Create(inv).Error)
	if !active {
		require.NoError(t, db.Model(inv).Update("active", false).Error)
	}
	return inv
}

func TestValidate_Usable(t *testing.T) {
	s, db := setupInvites(t)
	future := time.Now().UTC().Add(48 * time.Hour)
	seedInvite(t, db, "CLUB-OPEN", 3, 1, true, &future)

	res, err := s.Validate(context.Background(), "  club-open ")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "CLUB-OPEN", res.Code)
	assert.False(t, res.IsBypass())
}

func TestValidate_Failures(t *testing.T) {
	s, db := setupInvites(t)
	past := time.Now().UTC().Add(-time.Hour)
	seedInvite(t, db, "CLUB-TEST", 2, 2, true, nil)
	seedInvite(t, db, "CLUB-OLD", 5, 0, true, &past)
	seedInvite(t, db, "CLUB-OFF", 5, 0, false, nil)

	ctx := context.Background()
	_, err := s.Validate(ctx, "ab")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = s.Validate(ctx, "CLUB-NONE")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Validate(ctx, "club-test")
	assert.ErrorIs(t, err, ErrExhausted)
	_, err = s.Validate(ctx, "CLUB-OLD")
	assert.ErrorIs(t, err, ErrExpired)
	_, err = s.Validate(ctx, "CLUB-OFF")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_Bypass(t *testing.T) {
	s, _ := setupInvites(t)
	res, err := s.Validate(context.Background(), "club-alishba")
	require.NoError(t, err)
	assert.True(t, res.IsBypass())
	assert.Equal(t, "/austin-alishba", res.RedirectTo)
}

func TestConsume_SingleUseThenExhausted(t *testing.T) {
	s, db := setupInvites(t)
	seedInvite(t, db, "CLUB-ONCE", 1, 0, true, nil)
	ctx := context.Background()

	_, err := s.Validate(ctx, "CLUB-ONCE")
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return s.Consume(ctx, tx, "club-once")
	}))

	_, err = s.Validate(ctx, "CLUB-ONCE")
	assert.ErrorIs(t, err, ErrExhausted)
	err = db.Transaction(func(tx *gorm.DB) error {
		return s.Consume(ctx, tx, "CLUB-ONCE")
	})
	assert.ErrorIs(t, err, ErrExhausted)

	var inv domain.InviteCode
	require.NoError(t, db.Where("code = ?", "CLUB-ONCE").First(&inv).Error)
	assert.Equal(t, 1, inv.CurrentUses)
}

func TestConsume_RolledBackWithTransaction(t *testing.T) {
	s, db := setupInvites(t)
	seedInvite(t, db, "CLUB-ROLL", 1, 0, true, nil)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, s.Consume(ctx, tx, "CLUB-ROLL"))
		return assert.AnError
	})
	require.Error(t, err)

	var inv domain.InviteCode
	require.NoError(t, db.Where("code = ?", "CLUB-ROLL").First(&inv).Error)
	assert.Equal(t, 0, inv.CurrentUses)
}

func TestConsume_ConcurrentNeverExceedsMax(t *testing.T) {
	s, db := setupInvites(t)
	seedInvite(t, db, "CLUB-RACE", 1, 0, true, nil)
	ctx := context.Background()

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				return s.Consume(ctx, tx, "CLUB-RACE")
			})
			if err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok)

	var inv domain.InviteCode
	require.NoError(t, db.Where("code = ?", "CLUB-RACE").First(&inv).Error)
	assert.Equal(t, 1, inv.CurrentUses)
}

func TestCreate_GeneratedAndCustom(t *testing.T) {
	s, _ := setupInvites(t)
	ctx := context.Background()

	gen, err := s.Create(ctx, CreateInput{MaxUses: 3, ExpiresInDays: 7})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gen.Code, "CLUB-"))
	assert.Len(t, gen.Code, len("CLUB-")+6)
	assert.True(t, gen.Active)
	assert.Equal(t, domain.InviteSourceAdmin, gen.Source)
	require.NotNil(t, gen.ExpiresAt)

	custom, err := s.Create(ctx, CreateInput{Code: "vip-night", MaxUses: 1, Source: domain.InviteSourceFounder})
	require.NoError(t, err)
	assert.Equal(t, "VIP-NIGHT", custom.Code)
	assert.Nil(t, custom.ExpiresAt)

	_, err = s.Create(ctx, CreateInput{Code: "VIP-NIGHT", MaxUses: 1})
	assert.ErrorIs(t, err, ErrCodeTaken)
	_, err = s.Create(ctx, CreateInput{MaxUses: 0})
	assert.ErrorIs(t, err, ErrInvalidUses)
	_, err = s.Create(ctx, CreateInput{MaxUses: 1, Source: "nobody"})
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestSetActiveAndDelete(t *testing.T) {
	s, db := setupInvites(t)
	inv := seedInvite(t, db, "CLUB-TOGGLE", 2, 0, true, nil)
	ctx := context.Background()

	updated, err := s.SetActive(ctx, inv.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	_, err = s.Validate(ctx, "CLUB-TOGGLE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetActive(ctx, inv.ID, true)
	require.NoError(t, err)
	_, err = s.Validate(ctx, "CLUB-TOGGLE")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, inv.ID))
	assert.ErrorIs(t, s.Delete(ctx, inv.ID), ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
