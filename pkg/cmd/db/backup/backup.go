package backup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"adminctl/internal/backup"
	"adminctl/internal/config"
	"adminctl/internal/mysqladmin"
	"adminctl/internal/preflight"
	"adminctl/logger"
	"adminctl/pkg/cmd/factory"
)

type ConnectFunc func(cmd *cobra.Command, cfg config.Config) (mysqladmin.Admin, backup.Executor, error)

func NewBackupCmd(f *factory.Factory, connect ConnectFunc) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "Back up every database",
		Long:    "Dump every non-system database once, or on a cron schedule until interrupted.",
		Example: "adminctl db backup --schedule \"0 3 * * *\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule != "" {
				if err := backup.ValidateExpression(schedule); err != nil {
					return preflight.Failed(err)
				}
			}

			cfg, err := f.Config()
			if err != nil {
				return err
			}
			if err := preflight.RequireBinaries("mysql", "mysqldump"); err != nil {
				return err
			}

			admin, executor, err := connect(cmd, cfg)
			if err != nil {
				return err
			}
			defer admin.Close()

			sink, _, err := f.Audit(cfg)
			if err != nil {
				return err
			}
			job := &job{admin: admin, executor: executor, sink: sink}
			printer := f.Printer()

			if schedule == "" {
				printer.StartLoading("Backing up databases...")
				backups, err := job.run(cmd.Context())
				printer.StopLoading()
				for _, next := range backups {
					printer.PrintS(fmt.Sprintf("%s -> %s (%s)", next.Entity, next.Location, next.StorageType))
				}
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			scheduler, err := backup.NewScheduler()
			if err != nil {
				return err
			}
			err = scheduler.Schedule(ctx, "backup all databases", schedule, func(ctx context.Context) error {
				_, err := job.run(ctx)
				return err
			})
			if err != nil {
				return err
			}

			printer.PrintS(fmt.Sprintf("Backups scheduled with %q, press Ctrl-C to stop", schedule))
			logger.Info("backup scheduler started", zap.String("expression", schedule))
			return scheduler.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&schedule, "schedule", "s", "", "Cron expression that defines how often backups run")
	return cmd
}
