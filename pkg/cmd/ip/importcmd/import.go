package importcmd

import (
	"github.com/spf13/cobra"

	"adminctl/internal/firewall"
	"adminctl/internal/ipmenu"
	"adminctl/internal/preflight"
	"adminctl/pkg/cmd/factory"
)

type FirewallFunc func(f *factory.Factory) (firewall.Manager, error)

func NewImportCmd(f *factory.Factory, newFirewall FirewallFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import <file>",
		Short:   "Block every address listed in a file",
		Long:    "Block the addresses in <file>, one per line. Blank lines and lines starting with # are ignored. One confirmation covers the whole file.",
		Example: "sudo adminctl ip import blocklist.txt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := preflight.RequireFile(path); err != nil {
				return err
			}

			fw, err := newFirewall(f)
			if err != nil {
				return err
			}

			addresses, err := firewall.ReadAddressFile(path)
			if err != nil {
				return preflight.Failed(err)
			}

			cfg, _ := f.Config()
			s, _, err := f.Session(cfg, cfg.Confirm.FirewallToken)
			if err != nil {
				return err
			}
			return ipmenu.BulkBlock(cmd.Context(), s, fw, addresses)
		},
	}
	return cmd
}
