package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/pkg/validation"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	cacheKey   = "settings:site"
	defaultTTL = 5 * time.Minute
)

var ErrInvalidSettings = errors.New("Invalid settings payload")

// Site holds the back-office switches. Admission reads the waitlist and e-mail fields.
type Site struct {
	SiteName                string `json:"siteName" validate:"required"`
	DefaultSeatLimit        int    `json:"defaultSeatLimit" validate:"gte=1"`
	AllowWaitlist           bool   `json:"allowWaitlist"`
	MaxWaitlistSize         int    `json:"maxWaitlistSize" validate:"gte=0"`
	SendConfirmationEmails  bool   `json:"sendConfirmationEmails"`
	SendReminderEmails      bool   `json:"sendReminderEmails"`
	ReminderHoursBefore     int    `json:"reminderHoursBefore" validate:"gte=1,lte=168"`
	InviteCodeDefaultUses   int    `json:"inviteCodeDefaultUses" validate:"gte=1"`
	InviteCodeDefaultExpiry int    `json:"inviteCodeDefaultExpiry" validate:"gte=0"`
}

// Defaults is what a fresh install runs with.
func Defaults() Site {
	return Site{
		SiteName:               "Club25",
		DefaultSeatLimit:       25,
		AllowWaitlist:          true,
		MaxWaitlistSize:        0,
		SendConfirmationEmails: true,
		SendReminderEmails:     true,
		ReminderHoursBefore:    24,
		InviteCodeDefaultUses:  3,
	}
}

// ReminderWindow is how far ahead reminders are sent.
func (s Site) ReminderWindow() time.Duration {
	return time.Duration(s.ReminderHoursBefore) * time.Hour
}

// Service stores Site as one JSON row, cached in Redis when available.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
	TTL time.Duration
}

// Get returns the current settings. Keys missing from the stored row keep their defaults.
func (s *Service) Get(ctx context.Context) (Site, error) {
	if s.Rdb != nil {
		if raw, err := s.Rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			site := Defaults()
			if json.Unmarshal(raw, &site) == nil {
				return site, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("settings cache read failed")
		}
	}

	site := Defaults()
	var row domain.Setting
	err := s.DB.WithContext(ctx).Where("setting_key = ?", domain.SettingsKeySite).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return site, err
	}
	if err == nil {
		if err := json.Unmarshal(row.Value, &site); err != nil {
			return Defaults(), fmt.Errorf("decode settings: %w", err)
		}
	}
	s.cache(ctx, site)
	return site, nil
}

// Update applies a partial JSON patch over the current settings and saves the result.
func (s *Service) Update(ctx context.Context, patch []byte) (Site, error) {
	site, err := s.Get(ctx)
	if err != nil {
		return site, err
	}
	if err := json.Unmarshal(patch, &site); err != nil {
		return site, ErrInvalidSettings
	}
	if err := validation.Struct(site); err != nil {
		return site, err
	}
	raw, err := json.Marshal(site)
	if err != nil {
		return site, err
	}
	row := domain.Setting{Key: domain.SettingsKeySite, Value: datatypes.JSON(raw), UpdatedAt: time.Now().UTC()}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return site, err
	}
	if s.Rdb != nil {
		if err := s.Rdb.Del(ctx, cacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("settings cache invalidation failed")
		}
	}
	return site, nil
}

func (s *Service) cache(ctx context.Context, site Site) {
	if s.Rdb == nil {
		return
	}
	raw, err := json.Marshal(site)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := s.Rdb.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("settings cache write failed")
	}
}
