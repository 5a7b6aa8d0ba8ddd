//go:build !linux

package firewall

import "errors"

func newNFTables(_, _ string) (Manager, error) {
	return nil, errors.New("nftables backend is only available on linux")
}
