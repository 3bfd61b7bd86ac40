package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	dropsvc "club25-backend/internal/application/drops"
	invitesvc "club25-backend/internal/application/invites"
	"club25-backend/internal/auth"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is the seed file layout.
type Fixture struct {
	Drops   []DropFixture   `yaml:"drops"`
	Invites []InviteFixture `yaml:"invites"`
	Admins  []AdminFixture  `yaml:"admins"`
}

type DropFixture struct {
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	DateTime    time.Time `yaml:"date_time"`
	SeatLimit   int       `yaml:"seat_limit"`
	Status      string    `yaml:"status"`
	Description string    `yaml:"description"`
	ShortCopy   string    `yaml:"short_copy"`
	Location    string    `yaml:"location"`
}

type InviteFixture struct {
	Code          string `yaml:"code"`
	MaxUses       int    `yaml:"max_uses"`
	Source        string `yaml:"source"`
	ExpiresInDays int    `yaml:"expires_in_days"`
}

type AdminFixture struct {
	Fullname string `yaml:"fullname"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedResult counts created and skipped rows.
type SeedResult struct {
	Created int
	Skipped int
}

// LoadFixture parses a YAML seed file.
func LoadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Seed inserts the fixture. Rows that already exist are skipped.
func Seed(ctx context.Context, db *gorm.DB, f *Fixture) (SeedResult, error) {
	var res SeedResult
	record := func(kind, key string, err error, exists error) error {
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, exists):
			log.Info().Str("kind", kind).Str("key", key).Msg("seed: exists, skipped")
			res.Skipped++
		default:
			return fmt.Errorf("seed %s %q: %w", kind, key, err)
		}
		return nil
	}

	drops := &dropsvc.Service{DB: db}
	for _, d := range f.Drops {
		_, err := drops.Create(ctx, dropsvc.Input{
			Title:       d.Title,
			Slug:        d.Slug,
			DateTime:    d.DateTime,
			SeatLimit:   d.SeatLimit,
			Status:      d.Status,
			Description: d.Description,
			ShortCopy:   d.ShortCopy,
			Location:    d.Location,
		})
		if err := record("drop", d.Slug, err, dropsvc.ErrSlugTaken); err != nil {
			return res, err
		}
	}

	invites := &invitesvc.Service{DB: db}
	for _, i := range f.Invites {
		_, err := invites.Create(ctx, invitesvc.CreateInput{
			Code:          i.Code,
			MaxUses:       i.MaxUses,
			Source:        i.Source,
			ExpiresInDays: i.ExpiresInDays,
		})
		if err := record("invite", i.Code, err, invitesvc.ErrCodeTaken); err != nil {
			return res, err
		}
	}

	for _, a := range f.Admins {
		_, err := auth.CreateAdmin(ctx, db, auth.CreateAdminInput{
			Fullname: a.Fullname,
			Email:    a.Email,
			Password: a.Password,
			Role:     a.Role,
		})
		if err := record("admin", a.Email, err, auth.ErrAdminExists); err != nil {
			return res, err
		}
	}
	return res, nil
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load drops, invite codes and staff accounts from a YAML file",
		Long: `Load fixtures from a YAML file. Existing drops (by slug), codes and
accounts (by email) are left untouched, so the command can be re-run.

Example:
  club25ctl seed --file fixtures/launch.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := LoadFixture(file)
			if err != nil {
				return err
			}
			_, db, err := opts.env()
			if err != nil {
				return err
			}
			res, err := Seed(cmd.Context(), db, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded: %d created, %d skipped\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the YAML fixture (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
