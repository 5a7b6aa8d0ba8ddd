// Package ipmenu is the interactive firewall address blocking menu.
package ipmenu

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"adminctl/internal/audit"
	"adminctl/internal/authlog"
	"adminctl/internal/dispatch"
	"adminctl/internal/firewall"
)

const Title = "IP Block Management"

type (
	Deps struct {
		Firewall firewall.Manager
		History  audit.History
		// AuthLogs are scanned by the failed login action.
		AuthLogs []string
	}

	menu struct {
		Deps
	}
)

func New(deps Deps) *dispatch.Catalog {
	m := &menu{Deps: deps}
	return dispatch.NewCatalog(Title,
		dispatch.Action{Label: "List blocked addresses", Handler: m.list},
		dispatch.Action{Label: "Block address", Handler: m.block},
		dispatch.Action{Label: "Unblock address", Handler: m.unblock},
		dispatch.Action{Label: "Bulk block from file", Handler: m.bulkFromFile},
		dispatch.Action{Label: "Block failed login sources", Handler: m.blockFailedLogins},
		dispatch.Action{Label: "Show audit history", Handler: dispatch.ShowHistory(deps.History)},
	)
}

func (m *menu) rules() dispatch.Listing[firewall.Rule] {
	return dispatch.Listing[firewall.Rule]{
		Noun:  "rule",
		List:  m.Firewall.List,
		Label: firewall.Rule.String,
	}
}

func (m *menu) list(ctx context.Context, s *dispatch.Session) error {
	rules, err := m.Firewall.List(ctx)
	if err != nil {
		return dispatch.ExternalFailure("list rules", err)
	}
	if len(rules) == 0 {
		s.Printer.PrintW(fmt.Sprintf("No blocked addresses in %s", m.Firewall.Chain()))
		return nil
	}

	rows := lo.Map(rules, func(r firewall.Rule, i int) table.Row {
		return table.Row{i + 1, r.Line, r.Source, r.Target}
	})
	s.Printer.Table(table.Row{"#", "Line", "Source", "Target"}, rows)
	return nil
}

func (m *menu) block(ctx context.Context, s *dispatch.Session) error {
	ip, err := askAddress(s, "IP address to block")
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:   "block address",
		Entity: ip,
		Do: func(ctx context.Context) error {
			return m.Firewall.Block(ctx, ip)
		},
	})
}

func (m *menu) unblock(ctx context.Context, s *dispatch.Session) error {
	rule, err := dispatch.Choose(ctx, s, m.rules())
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:   "unblock address",
		Entity: rule.Source,
		Do: func(ctx context.Context) error {
			return m.Firewall.Unblock(ctx, rule.Source)
		},
	})
}

func (m *menu) bulkFromFile(ctx context.Context, s *dispatch.Session) error {
	path, err := s.AskRequired("Path to address file")
	if err != nil {
		return err
	}

	addresses, err := firewall.ReadAddressFile(path)
	if err != nil {
		return dispatch.Invalid("cannot read %s: %v", path, err)
	}
	return BulkBlock(ctx, s, m.Firewall, addresses)
}

func (m *menu) blockFailedLogins(ctx context.Context, s *dispatch.Session) error {
	sources, err := authlog.Scan(m.AuthLogs)
	if err != nil {
		return dispatch.ExternalFailure("scan auth logs", err)
	}

	rules, err := m.Firewall.List(ctx)
	if err != nil {
		return dispatch.ExternalFailure("list rules", err)
	}
	blocked := lo.SliceToMap(rules, func(r firewall.Rule) (string, struct{}) {
		return r.Source, struct{}{}
	})
	sources = lo.Reject(sources, func(src authlog.Source, _ int) bool {
		_, ok := blocked[src.Address]
		return ok
	})

	if len(sources) == 0 {
		s.Printer.PrintS("No unblocked failed login sources found")
		return nil
	}

	rows := lo.Map(sources, func(src authlog.Source, _ int) table.Row {
		return table.Row{src.Address, src.Attempts}
	})
	s.Printer.Table(table.Row{"Source", "Failed attempts"}, rows)
	return BulkBlock(ctx, s, m.Firewall, authlog.Addresses(sources))
}

// BulkBlock blocks addresses in order behind a single confirmation. Invalid
// addresses are reported and skipped. Every address gets its own block call
// and audit record, and a failure does not stop the rest of the batch.
func BulkBlock(ctx context.Context, s *dispatch.Session, fw firewall.Manager, addresses []string) error {
	valid, invalid := lo.FilterReject(addresses, func(ip string, _ int) bool {
		return firewall.ValidAddress(ip)
	})
	for _, next := range invalid {
		s.Printer.PrintW(fmt.Sprintf("Skipping invalid address %q", next))
	}
	if len(valid) == 0 {
		return dispatch.Invalid("no valid addresses to block")
	}

	ok, err := s.Confirm(fmt.Sprintf("Block %d addresses?", len(valid)))
	if err != nil {
		return err
	}
	if !ok {
		return dispatch.ErrDeclined
	}

	var failed []string
	for _, ip := range valid {
		err := s.Perform(ctx, "block address", ip, nil, func(ctx context.Context) error {
			return fw.Block(ctx, ip)
		})
		if err != nil {
			s.Printer.PrintE(err.Error())
			failed = append(failed, ip)
		}
	}
	if len(failed) > 0 {
		return dispatch.ExternalFailure("bulk block",
			fmt.Errorf("%d of %d addresses failed: %s", len(failed), len(valid), strings.Join(failed, ", ")))
	}
	return nil
}

func askAddress(s *dispatch.Session, label string) (string, error) {
	ip, err := s.AskRequired(label)
	if err != nil {
		return "", err
	}
	if !firewall.ValidAddress(ip) {
		return "", dispatch.Invalid("invalid IP address %q", ip)
	}
	return ip, nil
}
