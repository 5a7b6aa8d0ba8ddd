//go:build linux

package firewall

import (
	"context"
	"os"
	"testing"

	"github.com/google/nftables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTable = "test_fwall_table"
	testChain = "test_fwall_chain"
)

func TestNFTables_BlockListUnblock(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("nftables needs root")
	}

	m, err := NewManager(Options{Backend: BackendNFTables, Table: testTable, Chain: testChain}, nil)
	require.NoError(t, err)
	defer cleanup(testTable)

	ip := "192.168.1.100"
	require.NoError(t, m.Block(context.Background(), ip))

	rules, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, ip, rules[0].Source)
	assert.Equal(t, 1, rules[0].Line)

	require.NoError(t, m.Unblock(context.Background(), ip))
	rules, err = m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules, "IP %s should be unblocked", ip)

	assert.Error(t, m.Unblock(context.Background(), ip))
}

func cleanup(tableName string) {
	conn := &nftables.Conn{}
	conn.DelTable(&nftables.Table{Name: tableName, Family: nftables.TableFamilyIPv4})
	_ = conn.Flush()
}
