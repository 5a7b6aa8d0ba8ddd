package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"adminctl/internal/types"
	"adminctl/logger"
)

// TimestampLayout is the timestamp part of a dump file name.
const TimestampLayout = "20060102_150405"

type (
	Executor interface {
		// Dump exports database and stores it as {database}_{timestamp}.sql.
		Dump(ctx context.Context, database string) (types.Backup, error)
		// Restore replays a stored dump. The dump recreates its database.
		Restore(ctx context.Context, location string) error
		// List returns stored dumps, newest first. An empty database lists all.
		List(ctx context.Context, database string) ([]types.FileStat, error)
	}

	DatabaseLister interface {
		ListDatabases(ctx context.Context) ([]string, error)
	}
)

// DatabaseOf returns the database a dump file name was taken from, or an
// empty string when location is not a dump name.
func DatabaseOf(location string) string {
	name := strings.TrimSuffix(location, ".sql")
	if name == location || len(name) <= len(TimestampLayout)+1 {
		return ""
	}
	cut := len(name) - len(TimestampLayout)
	if name[cut-1] != '_' {
		return ""
	}
	if _, err := time.Parse(TimestampLayout, name[cut:]); err != nil {
		return ""
	}
	return name[:cut-1]
}

// FileName returns the storage location for a dump of database taken at t.
func FileName(database string, t time.Time) string {
	return fmt.Sprintf("%s_%s.sql", database, t.Format(TimestampLayout))
}

// DumpAll dumps every database the lister reports. A failed dump does not
// stop the remaining ones; the first error is returned with the backups
// that succeeded.
func DumpAll(ctx context.Context, lister DatabaseLister, ex Executor) ([]types.Backup, error) {
	databases, err := lister.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result   []types.Backup
		firstErr error
	)
	for _, next := range databases {
		bk, err := ex.Dump(ctx, next)
		if err != nil {
			logger.Error("backup returned error", zap.Error(err), logger.Entity(next))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result = append(result, bk)
	}
	return result, firstErr
}
