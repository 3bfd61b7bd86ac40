package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"club25-backend/internal/application/rsvps"
)

const exportDateLayout = "2006-01-02"

// WriteDropsCSV writes the drop performance table.
func (s *Service) WriteDropsCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.DropPerformance(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Drop", "Date", "Confirmed", "Waitlist", "Fill Rate", "Status"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Title,
			r.Date.UTC().Format(exportDateLayout),
			strconv.FormatInt(r.Confirmed, 10),
			strconv.FormatInt(r.Waitlist, 10),
			fmt.Sprintf("%.1f%%", r.FillRate),
			r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGuestsCSV writes the filtered guest list.
func (s *Service) WriteGuestsCSV(ctx context.Context, w io.Writer, ledger *rsvps.Ledger, f rsvps.GuestFilter) error {
	list, err := ledger.ListGuests(ctx, f)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := []string{"Name", "Email", "Phone", "Drop", "Status", "Confirmation Code", "Dietary Notes", "Invite Code", "Reserved At"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range list {
		var name, email, phone, drop string
		if r.Profile != nil {
			name, email, phone = r.Profile.Name, r.Profile.Email, r.Profile.Phone
		}
		if r.Drop != nil {
			drop = r.Drop.Title
		}
		rec := []string{name, email, phone, drop, r.Status, r.ConfirmationCode, r.DietaryNotes, r.UsedInviteCode, r.CreatedAt.UTC().Format(exportDateLayout)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
