package drops

import (
	"context"

	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshot is the seat usage of one drop.
type Snapshot struct {
	Confirmed int64
	Waitlist  int64
}

// ConfirmedCount counts confirmed reservations for a drop. Pass the admission
// transaction as db so the count and the insert that follows see the same state.
func ConfirmedCount(ctx context.Context, db *gorm.DB, dropID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.RSVP{}).
		Where("drop_id = ? AND status = ?", dropID, domain.RSVPConfirmed).
		Count(&n).Error
	return n, err
}

// WaitlistCount counts waitlisted reservations for a drop.
func WaitlistCount(ctx context.Context, db *gorm.DB, dropID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.RSVP{}).
		Where("drop_id = ? AND status = ?", dropID, domain.RSVPWaitlist).
		Count(&n).Error
	return n, err
}

// Snapshots returns confirmed and waitlist counts for each requested drop.
func Snapshots(ctx context.Context, db *gorm.DB, dropIDs ...uuid.UUID) (map[uuid.UUID]Snapshot, error) {
	out := make(map[uuid.UUID]Snapshot, len(dropIDs))
	if len(dropIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		DropID uuid.UUID
		Status string
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.RSVP{}).
		Select("drop_id, status, COUNT(*) AS n").
		Where("drop_id IN ?", dropIDs).
		Group("drop_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		snap := out[r.DropID]
		switch r.Status {
		case domain.RSVPConfirmed:
			snap.Confirmed = r.N
		case domain.RSVPWaitlist:
			snap.Waitlist = r.N
		}
		out[r.DropID] = snap
	}
	return out, nil
}

// Placement decides the status of the next reservation given current confirmed seats.
func Placement(confirmed int64, seatLimit int) string {
	if confirmed < int64(seatLimit) {
		return domain.RSVPConfirmed
	}
	return domain.RSVPWaitlist
}

// SeatsRemaining never goes below zero, even if an admin over-confirmed.
func SeatsRemaining(seatLimit int, confirmed int64) int {
	left := int64(seatLimit) - confirmed
	if left < 0 {
		return 0
	}
	return int(left)
}
