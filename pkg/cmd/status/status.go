package status

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"adminctl/internal/cmdutil"
	"adminctl/internal/sysinfo"
	"adminctl/logger"
	"adminctl/pkg/cmd/factory"
)

func NewStatusCmd(f *factory.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a summary of this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := f.Printer()
			printer.StartLoading("Collecting...")
			snapshot, err := sysinfo.Collect(cmd.Context())
			printer.StopLoading()
			if err != nil {
				return err
			}

			Render(f, snapshot)
			return nil
		},
	}
}

// Render prints snapshot as a two column table.
func Render(f *factory.Factory, snapshot sysinfo.Snapshot) {
	var rows []table.Row
	for _, next := range snapshot.Fields() {
		rows = append(rows, table.Row{next.Name, next.Value})
	}
	f.Printer().Table(table.Row{"Host", snapshot.Hostname}, rows[1:])
}

// Banner prints a one line host summary above a menu. A failed probe only
// skips the banner.
func Banner(ctx context.Context, p *cmdutil.Printer) {
	snapshot, err := sysinfo.Collect(ctx)
	if err != nil {
		logger.Warn("host summary unavailable", zap.Error(err))
		return
	}
	p.Print(snapshot.Summary())
}
