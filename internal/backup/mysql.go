package backup

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"adminctl/internal/mysqladmin"
	"adminctl/internal/shell"
	"adminctl/internal/storage"
	"adminctl/internal/types"
	"adminctl/logger"
)

type (
	mysqlBackupExecutor struct {
		runner  shell.Runner
		storage storage.Storage
		cred    mysqladmin.Credential
		now     func() time.Time
	}
)

func NewMysql(runner shell.Runner, st storage.Storage, cred mysqladmin.Credential) Executor {
	return &mysqlBackupExecutor{runner: runner, storage: st, cred: cred, now: time.Now}
}

func (m mysqlBackupExecutor) Dump(ctx context.Context, database string) (types.Backup, error) {
	logger.Info("starting mysql backup", logger.Entity(database), zap.String("storage", m.storage.Type().String()))

	tmp, err := os.CreateTemp("", database+"-*.sql")
	if err != nil {
		return types.Backup{}, errors.Wrap(err, "failed to create dump file")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	// MYSQL_PWD keeps the password off the process list.
	args := append(m.connArgs(), "--single-transaction", "--routines", "--triggers", "--databases", database)
	err = m.runner.Run(ctx, shell.Command{
		Name:   "mysqldump",
		Args:   args,
		Env:    m.env(),
		Stdout: tmp,
	})
	if err != nil {
		return types.Backup{}, errors.Wrap(err, "failed to execute mysqldump")
	}

	stat, err := tmp.Stat()
	if err != nil {
		return types.Backup{}, err
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return types.Backup{}, err
	}

	location := FileName(database, m.now())
	f := types.File{
		Content: types.NoOpReadCloser{Reader: tmp},
		Stat:    types.FileStat{Size: stat.Size(), Name: location},
	}
	if err := m.storage.Save(ctx, location, f); err != nil {
		return types.Backup{}, errors.Wrap(err, "failed to save file in storage")
	}

	logger.Info("mysql backup stored", logger.Entity(database), zap.String("location", location), zap.Int64("size", stat.Size()))
	return types.Backup{
		Entity:      database,
		Location:    location,
		StorageType: m.storage.Type().String(),
		Size:        stat.Size(),
	}, nil
}

func (m mysqlBackupExecutor) Restore(ctx context.Context, location string) error {
	f, err := m.storage.Get(ctx, location)
	if err != nil {
		return errors.Wrap(err, "failed to open backup "+location)
	}
	defer func() {
		_ = f.Content.Close()
	}()

	// dumps are taken with --databases, so they carry their own
	// CREATE DATABASE and USE statements
	err = m.runner.Run(ctx, shell.Command{
		Name:  "mysql",
		Args:  m.connArgs(),
		Env:   m.env(),
		Stdin: f.Content,
	})
	return errors.Wrap(err, "failed to restore "+location)
}

func (m mysqlBackupExecutor) List(ctx context.Context, database string) ([]types.FileStat, error) {
	prefix := ""
	if database != "" {
		prefix = database + "_"
	}
	return m.storage.List(ctx, prefix)
}

func (m mysqlBackupExecutor) connArgs() []string {
	return []string{
		"-h", m.cred.Host,
		"-P", strconv.Itoa(m.cred.Port),
		"-u", m.cred.User,
	}
}

func (m mysqlBackupExecutor) env() []string {
	return []string{"MYSQL_PWD=" + m.cred.Password}
}
