package backup

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/mysqladmin"
	"adminctl/internal/shell"
	"adminctl/internal/storage"
	"adminctl/internal/types"
)

type fakeRunner struct {
	commands []shell.Command
	stdin    []string
	output   string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, cmd shell.Command) error {
	f.commands = append(f.commands, cmd)
	if cmd.Stdin != nil {
		b, _ := io.ReadAll(cmd.Stdin)
		f.stdin = append(f.stdin, string(b))
	}
	if f.err != nil {
		return f.err
	}
	if cmd.Stdout != nil {
		_, _ = io.WriteString(cmd.Stdout, f.output)
	}
	return nil
}

var testCred = mysqladmin.Credential{User: "root", Password: "s3cret", Host: "127.0.0.1", Port: 3306}

func newExecutor(t *testing.T, r shell.Runner) (*mysqlBackupExecutor, storage.Storage) {
	st := storage.NewFileStorage(t.TempDir())
	ex := NewMysql(r, st, testCred).(*mysqlBackupExecutor)
	ex.now = func() time.Time { return time.Date(2026, 7, 1, 13, 4, 5, 0, time.UTC) }
	return ex, st
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "staging_db_20260701_130405.sql", FileName("staging_db", time.Date(2026, 7, 1, 13, 4, 5, 0, time.UTC)))
}

func TestDatabaseOf(t *testing.T) {
	assert.Equal(t, "staging_db", DatabaseOf("staging_db_20260701_130405.sql"))
	assert.Equal(t, "a_b", DatabaseOf("a_b_20260701_130405.sql"))
	assert.Equal(t, "", DatabaseOf("staging_db.sql"))
	assert.Equal(t, "", DatabaseOf("staging_db_20260701_130405.txt"))
	assert.Equal(t, "", DatabaseOf("_20260701_130405.sql"))
}

func TestDump(t *testing.T) {
	r := &fakeRunner{output: "-- dump\nCREATE DATABASE staging_db;\n"}
	ex, st := newExecutor(t, r)

	bk, err := ex.Dump(context.Background(), "staging_db")
	require.NoError(t, err)
	assert.Equal(t, "staging_db_20260701_130405.sql", bk.Location)
	assert.Equal(t, "staging_db", bk.Entity)
	assert.Equal(t, int64(len(r.output)), bk.Size)

	require.Len(t, r.commands, 1)
	cmd := r.commands[0]
	assert.Equal(t, "mysqldump", cmd.Name)
	assert.Equal(t, []string{"-h", "127.0.0.1", "-P", "3306", "-u", "root",
		"--single-transaction", "--routines", "--triggers", "--databases", "staging_db"}, cmd.Args)
	assert.Contains(t, cmd.Env, "MYSQL_PWD=s3cret")
	assert.NotContains(t, cmd.Args, "s3cret")

	f, err := st.Get(context.Background(), bk.Location)
	require.NoError(t, err)
	defer f.Content.Close()
	stored, _ := io.ReadAll(f.Content)
	assert.Equal(t, r.output, string(stored))
}

func TestDump_FailureStoresNothing(t *testing.T) {
	r := &fakeRunner{err: errors.New("mysqldump: Got error: 1044")}
	ex, st := newExecutor(t, r)

	_, err := ex.Dump(context.Background(), "app_db")
	assert.Error(t, err)

	files, err := st.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRestore(t *testing.T) {
	r := &fakeRunner{output: "CREATE DATABASE app_db;"}
	ex, _ := newExecutor(t, r)

	bk, err := ex.Dump(context.Background(), "app_db")
	require.NoError(t, err)

	require.NoError(t, ex.Restore(context.Background(), bk.Location))
	require.Len(t, r.commands, 2)
	assert.Equal(t, "mysql", r.commands[1].Name)
	assert.Equal(t, []string{"-h", "127.0.0.1", "-P", "3306", "-u", "root"}, r.commands[1].Args)
	assert.Equal(t, []string{"CREATE DATABASE app_db;"}, r.stdin)
}

type staticLister []string

func (s staticLister) ListDatabases(context.Context) ([]string, error) {
	return s, nil
}

type selectiveExecutor struct {
	failing string
	dumped  []string
}

func (s *selectiveExecutor) Dump(_ context.Context, database string) (types.Backup, error) {
	s.dumped = append(s.dumped, database)
	if database == s.failing {
		return types.Backup{}, errors.New("boom")
	}
	return types.Backup{Entity: database}, nil
}

func (s *selectiveExecutor) Restore(context.Context, string) error { return nil }

func (s *selectiveExecutor) List(context.Context, string) ([]types.FileStat, error) { return nil, nil }

func TestDumpAll_ContinuesAfterFailure(t *testing.T) {
	ex := &selectiveExecutor{failing: "b"}
	got, err := DumpAll(context.Background(), staticLister{"a", "b", "c"}, ex)

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"a", "b", "c"}, ex.dumped)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[1].Entity)
}

func TestValidateExpression(t *testing.T) {
	assert.NoError(t, ValidateExpression("0 3 * * *"))
	assert.Error(t, ValidateExpression("every night"))
}
