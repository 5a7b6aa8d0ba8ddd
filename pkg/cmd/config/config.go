package configcmd

import (
	"github.com/spf13/cobra"

	initcmd "adminctl/pkg/cmd/config/init"
	"adminctl/pkg/cmd/factory"
)

func NewConfigCmd(f *factory.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config <command>",
		Aliases: []string{"c"},
		Short:   "Manage adminctl configuration",
	}

	cmd.AddCommand(initcmd.NewConfigInitCmd(f))
	return cmd
}
