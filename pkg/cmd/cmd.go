package cmd

import (
	"github.com/spf13/cobra"

	"adminctl/internal/config"
	configcmd "adminctl/pkg/cmd/config"
	"adminctl/pkg/cmd/db"
	"adminctl/pkg/cmd/factory"
	"adminctl/pkg/cmd/ip"
	"adminctl/pkg/cmd/status"
)

func New(f *factory.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "adminctl - interactive MySQL and firewall administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", config.DefaultPath, "Path to the configuration file")

	cmd.AddCommand(db.NewDBCmd(f))
	cmd.AddCommand(ip.NewIPCmd(f))
	cmd.AddCommand(status.NewStatusCmd(f))
	cmd.AddCommand(configcmd.NewConfigCmd(f))
	return cmd
}
