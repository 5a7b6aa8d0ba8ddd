package ipmenu

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/audit/audittest"
	"adminctl/internal/cmdutil"
	"adminctl/internal/dispatch"
	"adminctl/internal/firewall"
	"adminctl/internal/prompt/prompttest"
)

type fakeFirewall struct {
	rules    []firewall.Rule
	blocked  []string
	removed  []string
	failFor  string
	listings int
}

func (f *fakeFirewall) Block(_ context.Context, ip string) error {
	f.blocked = append(f.blocked, ip)
	if ip == f.failFor {
		return errors.New("iptables: Resource temporarily unavailable")
	}
	return nil
}

func (f *fakeFirewall) Unblock(_ context.Context, ip string) error {
	f.removed = append(f.removed, ip)
	return nil
}

func (f *fakeFirewall) List(context.Context) ([]firewall.Rule, error) {
	f.listings++
	return f.rules, nil
}

func (f *fakeFirewall) Chain() string { return "INPUT" }

type fixture struct {
	fw      *fakeFirewall
	history *audittest.Memory
	out     *bytes.Buffer
	session *dispatch.Session
	logs    []string
}

func newFixture(answers ...string) *fixture {
	f := &fixture{
		fw:      &fakeFirewall{},
		history: &audittest.Memory{},
		out:     &bytes.Buffer{},
	}
	f.session = dispatch.NewSession(&prompttest.Scripted{Answers: answers}, cmdutil.NewPrinter(f.out, false), f.history, dispatch.Gate{Token: "y"}).
		WithClock(func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) })
	return f
}

func (f *fixture) run(t *testing.T) {
	catalog := New(Deps{Firewall: f.fw, History: f.history, AuthLogs: f.logs})
	require.NoError(t, dispatch.NewDispatcher(catalog).Run(context.Background(), f.session))
}

func messages(m *audittest.Memory) []string {
	var result []string
	for _, next := range m.Records {
		result = append(result, next.Message)
	}
	return result
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCatalog(t *testing.T) {
	c := New(Deps{Firewall: &fakeFirewall{}, History: &audittest.Memory{}})
	require.Len(t, c.Actions(), 7)

	bulk, ok := c.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, "Bulk block from file", bulk.Label)
}

func TestBlock(t *testing.T) {
	f := newFixture("2", "10.0.0.1", "Y", "0")
	f.run(t)

	assert.Equal(t, []string{"10.0.0.1"}, f.fw.blocked)
	assert.Equal(t, []string{"block address 10.0.0.1: succeeded"}, messages(f.history))
}

func TestBlock_LooseValidationAcceptsOutOfRangeOctets(t *testing.T) {
	f := newFixture("2", "999.1.1.1", "y", "0")
	f.run(t)

	assert.Equal(t, []string{"999.1.1.1"}, f.fw.blocked)
}

func TestBlock_InvalidAddress(t *testing.T) {
	f := newFixture("2", "10.0.0", "0")
	f.run(t)

	assert.Empty(t, f.fw.blocked)
	assert.Empty(t, f.history.Records)
	assert.Contains(t, f.out.String(), "invalid IP address")
}

func TestBlock_GateIsExactMatch(t *testing.T) {
	f := newFixture("2", "10.0.0.1", "yes", "2", "10.0.0.1", " y", "0")
	f.run(t)

	assert.Empty(t, f.fw.blocked)
	assert.Empty(t, f.history.Records)
}

func TestBlock_FailureIsAuditedAndLoopContinues(t *testing.T) {
	f := newFixture("2", "10.0.0.9", "y", "1", "0")
	f.fw.failFor = "10.0.0.9"
	f.run(t)

	require.Len(t, f.history.Records, 1)
	assert.Contains(t, f.history.Records[0].Message, "block address 10.0.0.9: failed")
	assert.Equal(t, 1, f.fw.listings)
	assert.Contains(t, f.out.String(), "Goodbye!")
}

func TestList(t *testing.T) {
	f := newFixture("1", "0")
	f.fw.rules = []firewall.Rule{{Line: 3, Target: "DROP", Source: "10.0.0.1"}}
	f.run(t)

	assert.Contains(t, f.out.String(), "10.0.0.1")
	assert.Empty(t, f.history.Records)
}

func TestUnblock_FetchesListingTwice(t *testing.T) {
	f := newFixture("3", "2", "y", "0")
	f.fw.rules = []firewall.Rule{
		{Line: 1, Target: "DROP", Source: "10.0.0.1"},
		{Line: 2, Target: "DROP", Source: "10.0.0.2"},
	}
	f.run(t)

	assert.Equal(t, []string{"10.0.0.2"}, f.fw.removed)
	assert.Equal(t, 2, f.fw.listings)
	assert.Equal(t, []string{"unblock address 10.0.0.2: succeeded"}, messages(f.history))
}

func TestUnblock_NoRules(t *testing.T) {
	f := newFixture("3", "0")
	f.run(t)

	assert.Empty(t, f.fw.removed)
	assert.Contains(t, f.out.String(), "no rules found")
}

func TestBulkBlockFromFile(t *testing.T) {
	path := writeFile(t, "blocklist.txt", "10.0.0.1\n\n# comment\n10.0.0.2\n")
	f := newFixture("4", path, "y", "0")
	f.run(t)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, f.fw.blocked)
	assert.Equal(t, []string{
		"block address 10.0.0.1: succeeded",
		"block address 10.0.0.2: succeeded",
	}, messages(f.history))
}

func TestBulkBlockFromFile_Declined(t *testing.T) {
	path := writeFile(t, "blocklist.txt", "10.0.0.1\n10.0.0.2\n")
	f := newFixture("4", path, "n", "0")
	f.run(t)

	assert.Empty(t, f.fw.blocked)
	assert.Empty(t, f.history.Records)
}

func TestBulkBlockFromFile_MissingFile(t *testing.T) {
	f := newFixture("4", filepath.Join(t.TempDir(), "missing.txt"), "0")
	f.run(t)

	assert.Empty(t, f.fw.blocked)
	assert.Contains(t, f.out.String(), "cannot read")
}

func TestBulkBlock_SkipsInvalidAndContinuesAfterFailure(t *testing.T) {
	f := newFixture("y")
	f.fw.failFor = "10.0.0.2"

	err := BulkBlock(context.Background(), f.session, f.fw, []string{"10.0.0.1", "not-an-ip", "10.0.0.2", "10.0.0.3"})

	var te *dispatch.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, f.fw.blocked)
	require.Len(t, f.history.Records, 3)
	assert.Contains(t, f.history.Records[1].Message, "failed")
	assert.Contains(t, f.out.String(), `Skipping invalid address "not-an-ip"`)
}

func TestBlockFailedLogins(t *testing.T) {
	f := newFixture("5", "y", "0")
	f.logs = []string{writeFile(t, "auth.log", ""+
		"sshd[1]: Failed password for root from 203.0.113.7 port 22 ssh2\n"+
		"sshd[1]: Failed password for root from 203.0.113.7 port 22 ssh2\n"+
		"sshd[2]: Invalid user admin from 198.51.100.2 port 22\n"+
		"sshd[3]: Failed password for root from 192.0.2.1 port 22 ssh2\n")}
	f.fw.rules = []firewall.Rule{{Line: 1, Target: "DROP", Source: "192.0.2.1"}}
	f.run(t)

	assert.Equal(t, []string{"203.0.113.7", "198.51.100.2"}, f.fw.blocked)
	assert.Len(t, f.history.Records, 2)
}

func TestBlockFailedLogins_NothingFound(t *testing.T) {
	f := newFixture("5", "0")
	f.run(t)

	assert.Empty(t, f.fw.blocked)
	assert.Contains(t, f.out.String(), "No unblocked failed login sources found")
}
