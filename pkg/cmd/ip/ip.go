package ip

import (
	"github.com/spf13/cobra"

	"adminctl/internal/dispatch"
	"adminctl/internal/firewall"
	"adminctl/internal/ipmenu"
	"adminctl/internal/preflight"
	"adminctl/internal/shell"
	"adminctl/pkg/cmd/factory"
	"adminctl/pkg/cmd/ip/importcmd"
	"adminctl/pkg/cmd/status"
)

func NewIPCmd(f *factory.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ip",
		Short:   "Block and unblock IPv4 addresses",
		Long:    "Open the interactive firewall menu. Every block and unblock asks for confirmation and is written to the audit log.",
		Example: "sudo adminctl ip",
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := Firewall(f)
			if err != nil {
				return err
			}

			cfg, _ := f.Config()
			s, history, err := f.Session(cfg, cfg.Confirm.FirewallToken)
			if err != nil {
				return err
			}

			catalog := ipmenu.New(ipmenu.Deps{Firewall: fw, History: history, AuthLogs: cfg.AuthLog.Files})
			status.Banner(cmd.Context(), s.Printer)
			return dispatch.NewDispatcher(catalog).Run(cmd.Context(), s)
		},
	}

	cmd.AddCommand(importcmd.NewImportCmd(f, Firewall))
	return cmd
}

// Firewall checks the firewall preconditions and returns the configured
// backend.
func Firewall(f *factory.Factory) (firewall.Manager, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	if err := preflight.RequireRoot(); err != nil {
		return nil, err
	}
	if cfg.Firewall.Backend == firewall.BackendIPTables {
		if err := preflight.RequireBinaries(cfg.Firewall.IPTablesPath); err != nil {
			return nil, err
		}
	}

	fw, err := firewall.NewManager(firewall.Options{
		Backend:  cfg.Firewall.Backend,
		Table:    cfg.Firewall.Table,
		Chain:    cfg.Firewall.Chain,
		IPTables: cfg.Firewall.IPTablesPath,
	}, shell.NewRunner())
	if err != nil {
		return nil, preflight.Failed(err)
	}
	return fw, nil
}
