package initcmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"adminctl/internal/auth"
	"adminctl/internal/config"
	"adminctl/internal/mysqladmin"
	"adminctl/pkg/cmd/factory"
)

func NewConfigInitCmd(f *factory.Factory) *cobra.Command {
	var (
		host, user, backupDir, backend string
		port                           int
		skipTest                       bool
	)
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write adminctl configuration",
		Long:    "Write the configuration file and keep the MySQL password in the OS keyring.",
		Example: "adminctl config init --host 127.0.0.1 --user root --backup-dir /var/backups/mysql",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := f.Printer()
			cfg, err := f.Config()
			if err != nil {
				return err
			}

			if host != "" {
				cfg.MySQL.Host = host
			}
			if user != "" {
				cfg.MySQL.User = user
			}
			if port != 0 {
				cfg.MySQL.Port = port
			}
			if backupDir != "" {
				cfg.Backup.Dir = backupDir
			}
			if backend != "" {
				cfg.Firewall.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			password, err := f.Prompter().Secret("MySQL password for " + cfg.MySQL.User)
			if err != nil {
				return err
			}

			if !skipTest {
				printer.StartLoading("Running test...")
				cred := mysqladmin.Credential{User: cfg.MySQL.User, Password: password, Host: cfg.MySQL.Host, Port: cfg.MySQL.Port}
				admin, err := mysqladmin.Connect(cmd.Context(), cred)
				printer.StopLoading()
				if err != nil {
					return err
				}
				_ = admin.Close()
			}

			if err := config.Save(f.ConfigPath, cfg); err != nil {
				return errors.Wrap(err, "failed to save config")
			}

			if err := auth.Save(cfg.MySQL.User, cfg.MySQL.Host, password); err != nil {
				return errors.Wrap(err, "failed to save password")
			}

			printer.PrintS(fmt.Sprintf("Configuration written to %s", f.ConfigPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&host, "host", "H", "", "MySQL host")
	cmd.Flags().IntVarP(&port, "port", "P", 0, "MySQL port")
	cmd.Flags().StringVarP(&user, "user", "u", "", "MySQL user")
	cmd.Flags().StringVarP(&backupDir, "backup-dir", "d", "", "Directory backups are written to")
	cmd.Flags().StringVarP(&backend, "firewall", "f", "", "Firewall backend, iptables or nftables")
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "Do not test the MySQL login before saving")
	return cmd
}
