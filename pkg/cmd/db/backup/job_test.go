package backup

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/audit/audittest"
	"adminctl/internal/types"
)

type lister []string

func (l lister) ListDatabases(context.Context) ([]string, error) { return l, nil }

type executor struct {
	fail string
}

func (e executor) Dump(_ context.Context, database string) (types.Backup, error) {
	if database == e.fail {
		return types.Backup{}, errors.New("access denied")
	}
	return types.Backup{Entity: database, Location: database + "_20260506_070809.sql"}, nil
}

func (e executor) Restore(context.Context, string) error { return nil }

func (e executor) List(context.Context, string) ([]types.FileStat, error) { return nil, nil }

func TestJob_AuditsEveryDump(t *testing.T) {
	mem := &audittest.Memory{}
	j := &job{
		admin:    lister{"app_db", "staging_db"},
		executor: executor{fail: "staging_db"},
		sink:     mem,
		now:      func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) },
	}

	backups, err := j.run(context.Background())
	assert.EqualError(t, err, "access denied")
	require.Len(t, backups, 1)

	require.Len(t, mem.Records, 2)
	assert.Equal(t, "backup database app_db: succeeded (app_db_20260506_070809.sql)", mem.Records[0].Message)
	assert.Equal(t, "backup database staging_db: failed: access denied", mem.Records[1].Message)
	assert.Equal(t, mem.Records[0].SessionID, mem.Records[1].SessionID)
}
