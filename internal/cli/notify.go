package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	dropsvc "club25-backend/internal/application/drops"
	"club25-backend/internal/application/notifications"
	settingssvc "club25-backend/internal/application/settings"
	"club25-backend/internal/config"
	"club25-backend/internal/interfaces/router"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// scheduler builds a Scheduler over the configured queue.
func scheduler(cfg *config.Config, db *gorm.DB) (*notifications.Scheduler, *router.Infra, error) {
	infra, err := router.NewInfra(cfg)
	if err != nil {
		return nil, nil, err
	}
	return &notifications.Scheduler{DB: db, Dispatcher: &notifications.Dispatcher{Queue: infra.Queue}}, infra, nil
}

// deliverLocal drains an in-process queue before the command exits and returns how
// many jobs failed. Redis-backed queues are left for the worker.
func deliverLocal(ctx context.Context, cfg *config.Config, q notifications.Queue) int {
	mq, ok := q.(*notifications.MemoryQueue)
	if !ok {
		return 0
	}
	w := &notifications.Worker{Queue: mq, Sender: router.NewSender(cfg), AppURL: cfg.AppURL, MaxAttempts: 1}
	failed := 0
	for {
		job, err := mq.Dequeue(ctx, 0)
		if err != nil || job == nil {
			return failed
		}
		if err := w.Process(ctx, *job); err != nil {
			failed++
		}
	}
}

func reportFailed(cmd *cobra.Command, failed int) {
	if failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d e-mails could not be sent (see log)\n", failed)
	}
}

func newRemindersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Day-before reminder e-mails",
	}
	var within time.Duration
	send := &cobra.Command{
		Use:   "send",
		Short: "Queue reminders for confirmed guests of drops starting soon",
		Long: `Queue the reminder e-mail for every confirmed reservation of a drop that
starts within the window. Each reservation is reminded once. Without --within the
window comes from the reminderHoursBefore setting.

Run it hourly from cron:
  club25ctl reminders send`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := opts.env()
			if err != nil {
				return err
			}
			s, infra, err := scheduler(cfg, db)
			if err != nil {
				return err
			}
			defer infra.Rdb.Close()

			if within <= 0 {
				site, err := (&settingssvc.Service{DB: db, Rdb: infra.Rdb}).Get(cmd.Context())
				if err != nil {
					return err
				}
				if !site.SendReminderEmails {
					fmt.Fprintln(cmd.OutOrStdout(), "reminder e-mails are disabled in settings")
					return nil
				}
				within = site.ReminderWindow()
			}
			n, err := s.SendReminders(cmd.Context(), within)
			if err != nil {
				return err
			}
			failed := deliverLocal(cmd.Context(), cfg, infra.Queue)
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d reminders\n", n)
			reportFailed(cmd, failed)
			return nil
		},
	}
	send.Flags().DurationVar(&within, "within", 0, "window ahead of now, e.g. 24h")
	cmd.AddCommand(send)
	return cmd
}

func newRecapsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recaps",
		Short: "Post-event gallery e-mails",
	}
	send := &cobra.Command{
		Use:   "send <drop-id-or-slug>",
		Short: "Queue the gallery recap for every confirmed guest of a drop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := opts.env()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				drop, ferr := (&dropsvc.Service{DB: db}).FindBySlug(cmd.Context(), db, args[0])
				if ferr != nil {
					return ferr
				}
				id = drop.ID
			}
			s, infra, err := scheduler(cfg, db)
			if err != nil {
				return err
			}
			defer infra.Rdb.Close()

			n, err := s.SendRecaps(cmd.Context(), id)
			if err != nil {
				return err
			}
			failed := deliverLocal(cmd.Context(), cfg, infra.Queue)
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d recaps\n", n)
			reportFailed(cmd, failed)
			return nil
		},
	}
	cmd.AddCommand(send)
	return cmd
}

func newWorkerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run notification workers until interrupted",
		Long:  "Run NOTIFY_WORKERS delivery workers against the Redis queue, for deployments where the API runs serverless.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return router.ErrRedisRequired
			}
			infra, err := router.NewInfra(cfg)
			if err != nil {
				return err
			}
			defer infra.Rdb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			router.StartWorkers(ctx, cfg, infra.Queue)
			log.Info().Int("workers", cfg.NotifyWorkers).Msg("notification workers running")
			<-ctx.Done()
			return nil
		},
	}
}
