package cli

import (
	"fmt"

	invitesvc "club25-backend/internal/application/invites"
	"club25-backend/internal/auth"
	"club25-backend/internal/domain"
	"club25-backend/internal/pkg/constants"

	"github.com/spf13/cobra"
)

func newInvitesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Manage invite codes",
	}

	var in invitesvc.CreateInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an invite code (random CLUB-XXXXXX unless --code is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := opts.env()
			if err != nil {
				return err
			}
			invite, err := (&invitesvc.Service{DB: db}).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (max uses %d, source %s)\n", invite.Code, invite.MaxUses, invite.Source)
			return nil
		},
	}
	create.Flags().StringVar(&in.Code, "code", "", "custom code")
	create.Flags().IntVar(&in.MaxUses, "max-uses", 1, "number of reservations the code admits")
	create.Flags().StringVar(&in.Source, "source", domain.InviteSourceAdmin, "admin | founder | attendee")
	create.Flags().IntVar(&in.ExpiresInDays, "expires-in-days", 0, "days until expiry (0 = never)")
	cmd.AddCommand(create)
	return cmd
}

func newAdminsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage back-office accounts",
	}

	var in auth.CreateAdminInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff or admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := opts.env()
			if err != nil {
				return err
			}
			u, err := auth.CreateAdmin(cmd.Context(), db, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s\n", u.Role, u.Email)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "login email (required)")
	create.Flags().StringVar(&in.Fullname, "name", "", "display name")
	create.Flags().StringVar(&in.Password, "password", "", "password, at least 8 characters (required)")
	create.Flags().StringVar(&in.Role, "role", constants.Staff, "staff | admin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)
	return cmd
}
