package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adminctl/internal/audit"
	"adminctl/internal/backup"
	"adminctl/internal/types"
	"adminctl/logger"
)

// job backs up every database and audits each dump under its own run ID.
type job struct {
	admin    backup.DatabaseLister
	executor backup.Executor
	sink     audit.Sink
	now      func() time.Time
}

func (j *job) run(ctx context.Context) ([]types.Backup, error) {
	id := uuid.New()
	return backup.DumpAll(ctx, j.admin, recording{Executor: j.executor, job: j, id: id})
}

func (j *job) record(ctx context.Context, id uuid.UUID, message string) {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	if err := j.sink.Append(ctx, audit.Record{SessionID: id, Timestamp: now(), Message: message}); err != nil {
		logger.Warn("failed to write audit record", zap.Error(err), zap.String("message", message))
	}
}

type recording struct {
	backup.Executor
	job *job
	id  uuid.UUID
}

func (r recording) Dump(ctx context.Context, database string) (types.Backup, error) {
	bk, err := r.Executor.Dump(ctx, database)
	if err != nil {
		r.job.record(ctx, r.id, fmt.Sprintf("backup database %s: failed: %v", database, err))
		return bk, err
	}
	r.job.record(ctx, r.id, fmt.Sprintf("backup database %s: succeeded (%s)", database, bk.Location))
	return bk, nil
}
