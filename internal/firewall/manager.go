package firewall

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"adminctl/internal/shell"
)

const (
	BackendIPTables = "iptables"
	BackendNFTables = "nftables"
)

type (
	Manager interface {
		Block(ctx context.Context, ip string) error
		Unblock(ctx context.Context, ip string) error
		// List returns the drop rules of the managed chain in rule order.
		List(ctx context.Context) ([]Rule, error)
		Chain() string
	}

	Rule struct {
		// Line is the 1-based position of the rule in its chain.
		Line int
		// Handle is the nftables rule handle, zero for iptables.
		Handle uint64
		Chain  string
		Target string
		Source string
	}

	Options struct {
		Backend  string
		Table    string
		Chain    string
		IPTables string
	}
)

func (r Rule) String() string {
	return fmt.Sprintf("%d  %s  %s", r.Line, r.Target, r.Source)
}

var addressPattern = regexp.MustCompile(`^[0-9]{1,3}(\.[0-9]{1,3}){3}$`)

// ValidAddress reports whether ip looks like a dotted quad. Octet ranges are
// not checked, 999.1.1.1 is accepted.
func ValidAddress(ip string) bool {
	return addressPattern.MatchString(ip)
}

// ReadAddressFile returns the addresses listed in path, one per line, in file
// order. Blank lines and lines starting with # are skipped.
func ReadAddressFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open address file")
	}
	defer f.Close()

	var result []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result = append(result, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read address file")
	}
	return result, nil
}

func NewManager(opts Options, runner shell.Runner) (Manager, error) {
	switch opts.Backend {
	case BackendNFTables:
		return newNFTables(opts.Table, opts.Chain)
	case BackendIPTables, "":
		return newIPTables(opts.IPTables, opts.Chain, runner), nil
	default:
		return nil, fmt.Errorf("unknown firewall backend %q", opts.Backend)
	}
}
