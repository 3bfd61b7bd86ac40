package notifications

import (
	"context"
	"time"

	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scheduler finds reservations due a reminder or recap and enqueues them.
type Scheduler struct {
	DB         *gorm.DB
	Dispatcher *Dispatcher
	Now        func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// SendReminders queues the day-before e-mail for confirmed guests of drops starting
// within the window. Each reservation is reminded once.
func (s *Scheduler) SendReminders(ctx context.Context, within time.Duration) (int, error) {
	now := s.now()
	var upcoming []domain.Drop
	err := s.DB.WithContext(ctx).
		Where("status IN ? AND date_time > ? AND date_time <= ?",
			[]string{domain.DropAnnounced, domain.DropSoldOut}, now, now.Add(within)).
		Find(&upcoming).Error
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range upcoming {
		drop := &upcoming[i]
		var due []domain.RSVP
		err := s.DB.WithContext(ctx).Preload("Profile").
			Where("drop_id = ? AND status = ? AND reminder_sent_at IS NULL", drop.ID, domain.RSVPConfirmed).
			Find(&due).Error
		if err != nil {
			return sent, err
		}
		for j := range due {
			r := &due[j]
			if r.Profile == nil {
				continue
			}
			if err := s.Dispatcher.Enqueue(ctx, ReminderJob(r, drop, r.Profile)); err != nil {
				return sent, err
			}
			if err := s.DB.WithContext(ctx).Model(&domain.RSVP{}).Where("id = ?", r.ID).
				Update("reminder_sent_at", now).Error; err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}

// SendRecaps queues the gallery recap for every confirmed guest of a drop.
func (s *Scheduler) SendRecaps(ctx context.Context, dropID uuid.UUID) (int, error) {
	var drop domain.Drop
	if err := s.DB.WithContext(ctx).Where("id = ?", dropID).First(&drop).Error; err != nil {
		return 0, err
	}
	var guests []domain.RSVP
	err := s.DB.WithContext(ctx).Preload("Profile").
		Where("drop_id = ? AND status = ?", dropID, domain.RSVPConfirmed).
		Find(&guests).Error
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range guests {
		r := &guests[i]
		if r.Profile == nil {
			continue
		}
		if err := s.Dispatcher.Enqueue(ctx, RecapJob(r, &drop, r.Profile)); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
