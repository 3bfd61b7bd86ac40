package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"club25-backend/internal/application/drops"
	"club25-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	topReferrerLimit = 10
	monthLayout      = "Jan 2006"
)

// Service computes back-office numbers straight from the ledger tables.
type Service struct {
	DB *gorm.DB
}

// Dashboard is the headline stats block.
type Dashboard struct {
	TotalDrops     int64   `json:"totalDrops"`
	ActiveDrops    int64   `json:"activeDrops"`
	CompletedDrops int64   `json:"completedDrops"`
	TotalRSVPs     int64   `json:"totalRSVPs"`
	ConfirmedSeats int64   `json:"confirmedSeats"`
	WaitlistCount  int64   `json:"waitlistCount"`
	CancelledCount int64   `json:"cancelledCount"`
	ConversionRate float64 `json:"conversionRate"`
	TotalCodes     int64   `json:"totalCodes"`
	ActiveCodes    int64   `json:"activeCodes"`
	TotalInvites   int64   `json:"totalInvites"`
	CodeUsageRate  float64 `json:"codeUsageRate"`
	TotalCheckins  int64   `json:"totalCheckins"`
	AttendanceRate float64 `json:"attendanceRate"`
	TotalGuests    int64   `json:"totalGuests"`
}

// DropPerformance is one row of the per-drop table.
type DropPerformance struct {
	DropID    uuid.UUID `json:"dropId"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Confirmed int64     `json:"confirmed"`
	Waitlist  int64     `json:"waitlist"`
	SeatLimit int       `json:"seatLimit"`
	FillRate  float64   `json:"fillRate"`
	Status    string    `json:"status"`
}

// Referrer is an invite code ranked by use.
type Referrer struct {
	Code      string  `json:"code"`
	Uses      int     `json:"uses"`
	MaxUses   int     `json:"maxUses"`
	UsageRate float64 `json:"usageRate"`
}

// MonthCount is the number of reservations created in a calendar month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Report bundles the analytics page.
type Report struct {
	Drops        []DropPerformance `json:"dropStats"`
	TopReferrers []Referrer        `json:"topReferrers"`
	Growth       []MonthCount      `json:"growthData"`
}

// Percent returns part/whole*100 rounded to one decimal, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}

func (s *Service) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := s.DB.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

// Dashboard computes the headline stats.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	counts := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&d.TotalDrops, &domain.Drop{}, "", nil},
		{&d.ActiveDrops, &domain.Drop{}, "status IN ?", []interface{}{[]string{domain.DropAnnounced, domain.DropSoldOut}}},
		{&d.CompletedDrops, &domain.Drop{}, "status = ?", []interface{}{domain.DropCompleted}},
		{&d.TotalRSVPs, &domain.RSVP{}, "", nil},
		{&d.ConfirmedSeats, &domain.RSVP{}, "status = ?", []interface{}{domain.RSVPConfirmed}},
		{&d.WaitlistCount, &domain.RSVP{}, "status = ?", []interface{}{domain.RSVPWaitlist}},
		{&d.CancelledCount, &domain.RSVP{}, "status = ?", []interface{}{domain.RSVPCancelled}},
		{&d.TotalCodes, &domain.InviteCode{}, "", nil},
		{&d.ActiveCodes, &domain.InviteCode{}, "active = ?", []interface{}{true}},
		{&d.TotalCheckins, &domain.Checkin{}, "checked_in_at IS NOT NULL", nil},
		{&d.TotalGuests, &domain.Profile{}, "", nil},
	}
	for _, c := range counts {
		n, err := s.count(ctx, c.model, c.query, c.args...)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	var uses struct {
		UsedTotal int64
		MaxTotal  int64
	}
	err := s.DB.WithContext(ctx).Model(&domain.InviteCode{}).
		Select("COALESCE(SUM(current_uses), 0) AS used_total, COALESCE(SUM(max_uses), 0) AS max_total").
		Scan(&uses).Error
	if err != nil {
		return nil, err
	}
	d.TotalInvites = uses.UsedTotal
	d.ConversionRate = Percent(float64(d.ConfirmedSeats), float64(d.TotalRSVPs))
	d.CodeUsageRate = Percent(float64(uses.UsedTotal), float64(uses.MaxTotal))
	d.AttendanceRate = Percent(float64(d.TotalCheckins), float64(d.ConfirmedSeats))
	return &d, nil
}

// DropPerformance lists every drop, newest first, with fill rate against its seat limit.
func (s *Service) DropPerformance(ctx context.Context) ([]DropPerformance, error) {
	var ds []domain.Drop
	if err := s.DB.WithContext(ctx).Order("date_time DESC").Find(&ds).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	snaps, err := drops.Snapshots(ctx, s.DB, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]DropPerformance, 0, len(ds))
	for _, d := range ds {
		snap := snaps[d.ID]
		out = append(out, DropPerformance{
			DropID:    d.ID,
			Title:     d.Title,
			Date:      d.DateTime,
			Confirmed: snap.Confirmed,
			Waitlist:  snap.Waitlist,
			SeatLimit: d.SeatLimit,
			FillRate:  Percent(float64(snap.Confirmed), float64(d.SeatLimit)),
			Status:    d.Status,
		})
	}
	return out, nil
}

// TopReferrers returns the most used invite codes.
func (s *Service) TopReferrers(ctx context.Context) ([]Referrer, error) {
	var codes []domain.InviteCode
	err := s.DB.WithContext(ctx).
		Where("current_uses > 0").
		Order("current_uses DESC").Order("code ASC").
		Limit(topReferrerLimit).
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	out := make([]Referrer, 0, len(codes))
	for _, c := range codes {
		out = append(out, Referrer{
			Code:      c.Code,
			Uses:      c.CurrentUses,
			MaxUses:   c.MaxUses,
			UsageRate: Percent(float64(c.CurrentUses), float64(c.MaxUses)),
		})
	}
	return out, nil
}

// MonthlyGrowth counts reservations per calendar month (UTC), oldest first.
func (s *Service) MonthlyGrowth(ctx context.Context) ([]MonthCount, error) {
	var stamps []time.Time
	if err := s.DB.WithContext(ctx).Model(&domain.RSVP{}).Pluck("created_at", &stamps).Error; err != nil {
		return nil, err
	}
	byMonth := map[time.Time]int{}
	for _, ts := range stamps {
		ts = ts.UTC()
		byMonth[time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}
	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	out := make([]MonthCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthCount{Month: m.Format(monthLayout), Count: byMonth[m]})
	}
	return out, nil
}

// Report assembles the analytics page.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	perf, err := s.DropPerformance(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := s.TopReferrers(ctx)
	if err != nil {
		return nil, err
	}
	growth, err := s.MonthlyGrowth(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Drops: perf, TopReferrers: refs, Growth: growth}, nil
}
