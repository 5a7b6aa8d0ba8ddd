// Package audit records one line per state changing action.
package audit

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"adminctl/internal/database"
	"adminctl/internal/types"
)

// TimeLayout is the timestamp format of the flat audit log.
const TimeLayout = "2006-01-02 15:04:05"

type (
	Record struct {
		SessionID uuid.UUID
		Timestamp time.Time
		Message   string
	}

	// Sink is append-only.
	Sink interface {
		Append(ctx context.Context, r Record) error
	}

	// History is a Sink that can also be read back.
	History interface {
		Sink
		Recent(ctx context.Context, limit int) ([]Record, error)
	}

	fileSink struct {
		mu sync.Mutex
		w  io.Writer
	}

	historySink struct {
		repo database.AuditRepository
	}

	multiSink []Sink
)

// Line formats r the way it appears in the log file.
func (r Record) Line() string {
	return fmt.Sprintf("%s - %s", r.Timestamp.Format(TimeLayout), r.Message)
}

// NewFileSink appends records to path. The lumberjack writer is configured
// to keep every rotated file, so nothing is ever discarded.
func NewFileSink(path string) Sink {
	return NewWriterSink(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 0,
		MaxAge:     0,
		Compress:   false,
		LocalTime:  true,
	})
}

func NewWriterSink(w io.Writer) Sink {
	return &fileSink{w: w}
}

func (f *fileSink) Append(_ context.Context, r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := io.WriteString(f.w, r.Line()+"\n")
	return errors.Wrap(err, "failed to write audit log")
}

func NewHistory(repo database.AuditRepository) History {
	return &historySink{repo: repo}
}

func (h historySink) Append(ctx context.Context, r Record) error {
	return h.repo.Save(ctx, &types.AuditEntry{
		ID:        uuid.New(),
		SessionID: r.SessionID,
		Timestamp: r.Timestamp,
		Message:   r.Message,
	})
}

func (h historySink) Recent(ctx context.Context, limit int) ([]Record, error) {
	entries, err := h.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]Record, 0, len(entries))
	for _, next := range entries {
		result = append(result, Record{
			SessionID: next.SessionID,
			Timestamp: next.Timestamp,
			Message:   next.Message,
		})
	}
	return result, nil
}

// Multi writes to every sink even when an earlier one fails.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Append(ctx context.Context, r Record) error {
	var errs []error
	for _, next := range m {
		if err := next.Append(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
