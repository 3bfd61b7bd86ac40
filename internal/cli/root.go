// Package cli implements club25ctl, the operator command line for the Club25 backend.
package cli

import (
	"errors"

	"club25-backend/internal/config"
	"club25-backend/internal/infrastructure/database"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned when no DATABASE_URL_* is configured.
var ErrNoDatabase = errors.New("no database configured (set DATABASE_URL_DEV or DATABASE_URL)")

// RootOptions holds global flags and the environment shared by all commands.
type RootOptions struct {
	Verbose bool

	// LoadConfig and OpenDB default to config.Load and database.Open; tests override them.
	LoadConfig func() (*config.Config, error)
	OpenDB     func(dsn string) (*gorm.DB, error)
}

// NewRootCommand creates the club25ctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load, OpenDB: database.Open})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "club25ctl",
		Short:         "Club25 operator tools",
		Long:          "Operator commands for the Club25 supper-club backend: schema, fixtures, invite codes, staff accounts and e-mail jobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if opts.Verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newInvitesCommand(opts))
	cmd.AddCommand(newAdminsCommand(opts))
	cmd.AddCommand(newRemindersCommand(opts))
	cmd.AddCommand(newRecapsCommand(opts))
	cmd.AddCommand(newWorkerCommand(opts))

	return cmd
}

// env loads configuration and opens the database.
func (o *RootOptions) env() (*config.Config, *gorm.DB, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, ErrNoDatabase
	}
	db, err := o.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
