package firewall

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"adminctl/internal/shell"
)

type iptablesManager struct {
	binary string
	chain  string
	runner shell.Runner
}

func newIPTables(binary, chain string, runner shell.Runner) Manager {
	if binary == "" {
		binary = "iptables"
	}
	if chain == "" {
		chain = "INPUT"
	}
	return &iptablesManager{binary: binary, chain: chain, runner: runner}
}

func (m iptablesManager) Block(ctx context.Context, ip string) error {
	return m.run(ctx, "-A", m.chain, "-s", ip, "-j", "DROP")
}

// Unblock deletes every DROP rule for ip. A single -D only removes the first
// match, so duplicates are counted from the listing first.
func (m iptablesManager) Unblock(ctx context.Context, ip string) error {
	rules, err := m.List(ctx)
	if err != nil {
		return err
	}

	matches := 0
	for _, next := range rules {
		if next.Source == ip {
			matches++
		}
	}
	if matches == 0 {
		return errors.Errorf("no rule blocks %s", ip)
	}

	for i := 0; i < matches; i++ {
		if err := m.run(ctx, "-D", m.chain, "-s", ip, "-j", "DROP"); err != nil {
			return err
		}
	}
	return nil
}

func (m iptablesManager) List(ctx context.Context) ([]Rule, error) {
	out, err := shell.Output(ctx, m.runner, shell.Command{
		Name: m.binary,
		Args: []string{"-L", m.chain, "-n", "--line-numbers"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list "+m.chain)
	}
	return parseRules(m.chain, out), nil
}

func (m iptablesManager) Chain() string {
	return m.chain
}

func (m iptablesManager) run(ctx context.Context, args ...string) error {
	return m.runner.Run(ctx, shell.Command{Name: m.binary, Args: args})
}

// parseRules reads `iptables -L <chain> -n --line-numbers` output:
//
//	Chain INPUT (policy ACCEPT)
//	num  target     prot opt source               destination
//	1    DROP       all  --  10.0.0.1             0.0.0.0/0
func parseRules(chain, out string) []Rule {
	var result []Rule
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil || fields[1] != "DROP" {
			continue
		}
		result = append(result, Rule{
			Line:   num,
			Chain:  chain,
			Target: fields[1],
			Source: fields[4],
		})
	}
	return result
}
