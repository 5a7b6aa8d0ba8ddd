package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"adminctl/internal/backup"
	"adminctl/internal/config"
	"adminctl/internal/dbmenu"
	"adminctl/internal/dispatch"
	"adminctl/internal/mysqladmin"
	"adminctl/internal/preflight"
	"adminctl/internal/prompt"
	"adminctl/internal/shell"
	"adminctl/internal/storage"
	backupcmd "adminctl/pkg/cmd/db/backup"
	"adminctl/pkg/cmd/factory"
	"adminctl/pkg/cmd/status"
)

// Overrides replaces connection settings from the config file.
type Overrides struct {
	User string
	Host string
	Port int
}

func (o Overrides) Apply(cfg *config.MySQLConfig) {
	if o.User != "" {
		cfg.User = o.User
	}
	if o.Host != "" {
		cfg.Host = o.Host
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
}

func NewDBCmd(f *factory.Factory) *cobra.Command {
	var overrides Overrides
	cmd := &cobra.Command{
		Use:     "db",
		Short:   "Manage MySQL databases, tables and users",
		Long:    "Open the interactive MySQL administration menu. Destructive actions ask for confirmation and are written to the audit log.",
		Example: "adminctl db --user root --host 127.0.0.1",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.Config()
			if err != nil {
				return err
			}
			overrides.Apply(&cfg.MySQL)

			if err := preflight.RequireBinaries("mysql", "mysqldump"); err != nil {
				return err
			}

			s, history, err := f.Session(cfg, cfg.Confirm.DatabaseToken)
			if err != nil {
				return err
			}

			admin, executor, err := Connect(cmd, f, cfg, s.Prompt)
			if err != nil {
				return err
			}
			defer admin.Close()

			catalog := dbmenu.New(dbmenu.Deps{Admin: admin, Backup: executor, History: history})
			status.Banner(cmd.Context(), s.Printer)
			return dispatch.NewDispatcher(catalog).Run(cmd.Context(), s)
		},
	}

	cmd.PersistentFlags().StringVarP(&overrides.User, "user", "u", "", "MySQL user")
	cmd.PersistentFlags().StringVarP(&overrides.Host, "host", "H", "", "MySQL host")
	cmd.PersistentFlags().IntVarP(&overrides.Port, "port", "P", 0, "MySQL port")

	cmd.AddCommand(backupcmd.NewBackupCmd(f, func(cmd *cobra.Command, cfg config.Config) (mysqladmin.Admin, backup.Executor, error) {
		overrides.Apply(&cfg.MySQL)
		return Connect(cmd, f, cfg, f.Prompter())
	}))
	return cmd
}

// Connect logs in to MySQL and returns the admin client with a backup
// executor using the same credential. A failed login is a precondition
// failure.
func Connect(cmd *cobra.Command, f *factory.Factory, cfg config.Config, p prompt.Prompter) (mysqladmin.Admin, backup.Executor, error) {
	cred, err := f.Credential(cfg.MySQL, p)
	if err != nil {
		return nil, nil, err
	}

	admin, err := mysqladmin.Connect(cmd.Context(), cred)
	if err != nil {
		return nil, nil, preflight.Failed(err)
	}

	st, err := backupStorage(cmd.Context(), f, cfg.Backup)
	if err != nil {
		_ = admin.Close()
		return nil, nil, err
	}
	return admin, backup.NewMysql(shell.NewRunner(), st, cred), nil
}

// backupStorage opens the backup sink. An unreachable sink is a
// precondition failure.
func backupStorage(ctx context.Context, f *factory.Factory, cfg config.BackupConfig) (storage.Storage, error) {
	st, err := f.Storage(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		return nil, preflight.Failed(errors.Wrapf(err, "backup storage %s unavailable", st.Type()))
	}
	return st, nil
}
