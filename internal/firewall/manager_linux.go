//go:build linux

package firewall

import (
	"context"
	"fmt"
	"net"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
)

type nftablesManager struct {
	conn  *nftables.Conn
	table *nftables.Table
	chain *nftables.Chain
}

func newNFTables(tableName, chainName string) (Manager, error) {
	if tableName == "" {
		tableName = "adminctl"
	}
	if chainName == "" {
		chainName = "input"
	}

	table := &nftables.Table{
		Name:   tableName,
		Family: nftables.TableFamilyIPv4,
	}
	chain := &nftables.Chain{
		Name:     chainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookInput,
		Priority: nftables.ChainPriorityFilter,
	}
	return &nftablesManager{
		conn:  &nftables.Conn{},
		table: table,
		chain: chain,
	}, nil
}

// ensure creates the table and chain. Both calls are no-ops when they exist.
func (m nftablesManager) ensure() error {
	m.conn.AddTable(m.table)
	m.conn.AddChain(m.chain)
	if err := m.conn.Flush(); err != nil {
		return fmt.Errorf("failed to create table %s: %w", m.table.Name, err)
	}
	return nil
}

func (m nftablesManager) Block(_ context.Context, ip string) error {
	addr := net.ParseIP(ip).To4()
	if addr == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}
	if err := m.ensure(); err != nil {
		return err
	}

	rule := &nftables.Rule{
		Table: m.table,
		Chain: m.chain,
		Exprs: []expr.Any{
			&expr.Payload{
				DestRegister: 1,
				Base:         expr.PayloadBaseNetworkHeader,
				Offset:       12,
				Len:          4,
			},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     []byte(addr),
			},
			&expr.Verdict{Kind: expr.VerdictDrop},
		},
	}

	m.conn.AddRule(rule)
	if err := m.conn.Flush(); err != nil {
		return fmt.Errorf("failed to block IP %s: %w", ip, err)
	}
	return nil
}

func (m nftablesManager) Unblock(_ context.Context, ip string) error {
	addr := net.ParseIP(ip).To4()
	if addr == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}

	rules, err := m.conn.GetRules(m.table, m.chain)
	if err != nil {
		return fmt.Errorf("failed to retrieve rules: %w", err)
	}

	var deleted int
	for _, rule := range rules {
		if source, ok := dropSource(rule); ok && source.Equal(addr) {
			if err := m.conn.DelRule(rule); err != nil {
				return err
			}
			deleted++
		}
	}
	if deleted == 0 {
		return fmt.Errorf("no rule blocks %s", ip)
	}

	if err := m.conn.Flush(); err != nil {
		return fmt.Errorf("failed to unblock IP %s: %w", ip, err)
	}
	return nil
}

func (m nftablesManager) List(_ context.Context) ([]Rule, error) {
	if err := m.ensure(); err != nil {
		return nil, err
	}

	rules, err := m.conn.GetRules(m.table, m.chain)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve rules: %w", err)
	}

	var result []Rule
	for i, rule := range rules {
		source, ok := dropSource(rule)
		if !ok {
			continue
		}
		result = append(result, Rule{
			Line:   i + 1,
			Handle: rule.Handle,
			Chain:  m.chain.Name,
			Target: "DROP",
			Source: source.String(),
		})
	}
	return result, nil
}

func (m nftablesManager) Chain() string {
	return m.table.Name + "/" + m.chain.Name
}

// dropSource returns the source address of an `ip saddr X drop` rule.
func dropSource(rule *nftables.Rule) (net.IP, bool) {
	var (
		saddr  bool
		source net.IP
		drop   bool
	)
	for _, next := range rule.Exprs {
		switch e := next.(type) {
		case *expr.Payload:
			saddr = e.Base == expr.PayloadBaseNetworkHeader && e.Offset == 12 && e.Len == 4
		case *expr.Cmp:
			if saddr && e.Op == expr.CmpOpEq && len(e.Data) == 4 {
				source = net.IP(e.Data)
			}
		case *expr.Verdict:
			drop = e.Kind == expr.VerdictDrop
		}
	}
	return source, source != nil && drop
}
