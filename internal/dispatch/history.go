package dispatch

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"

	"adminctl/internal/audit"
)

// HistoryLimit is how many audit records ShowHistory lists.
const HistoryLimit = 20

// ShowHistory returns a handler listing the most recent audit records.
func ShowHistory(history audit.History) Handler {
	return func(ctx context.Context, s *Session) error {
		records, err := history.Recent(ctx, HistoryLimit)
		if err != nil {
			return ExternalFailure("read audit history", err)
		}
		if len(records) == 0 {
			s.Printer.PrintW("No audit records yet")
			return nil
		}

		rows := make([]table.Row, 0, len(records))
		for _, next := range records {
			rows = append(rows, table.Row{next.Timestamp.Format(audit.TimeLayout), next.Message})
		}
		s.Printer.Table(table.Row{"Time", "Action"}, rows)
		return nil
	}
}
