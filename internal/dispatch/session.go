package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"adminctl/internal/audit"
	"adminctl/internal/cmdutil"
	"adminctl/internal/prompt"
	"adminctl/logger"
)

type (
	// Gate passes only when the response equals Token, ignoring case. The
	// response is compared as typed, surrounding whitespace included.
	Gate struct {
		Token string
	}

	// Session is the state of one interactive run. Handlers receive it
	// explicitly, there is no process wide session.
	Session struct {
		ID        uuid.UUID
		StartedAt time.Time
		Prompt    prompt.Prompter
		Printer   *cmdutil.Printer
		Audit     audit.Sink
		Gate      Gate

		now func() time.Time
	}

	// DestructiveAction is an irreversible change to a backing system.
	DestructiveAction struct {
		// Verb and Entity identify the action in prompts and audit records,
		// e.g. "drop database" and "staging_db".
		Verb   string
		Entity string

		// Question overrides the default confirmation prompt.
		Question string

		// Before runs after confirmation and before Do. When it fails Do is
		// skipped. The returned note is added to the audit record.
		Before func(ctx context.Context) (string, error)

		Do func(ctx context.Context) error
	}
)

func (g Gate) Confirm(response string) bool {
	return g.Token != "" && strings.EqualFold(response, g.Token)
}

func NewSession(p prompt.Prompter, printer *cmdutil.Printer, sink audit.Sink, gate Gate) *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Prompt:    p,
		Printer:   printer,
		Audit:     sink,
		Gate:      gate,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for audit records.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

func (s *Session) Ask(label string) (string, error) {
	return s.Prompt.Ask(label)
}

// AskRequired returns the trimmed answer. An empty answer is an invalid
// selection.
func (s *Session) AskRequired(label string) (string, error) {
	value, err := s.Prompt.Ask(label)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", Invalid("%s is required", strings.ToLower(label))
	}
	return value, nil
}

// Confirm asks question and reports whether the gate was passed.
func (s *Session) Confirm(question string) (bool, error) {
	answer, err := s.Prompt.Ask(fmt.Sprintf("%s Type '%s' to confirm", question, s.Gate.Token))
	if err != nil {
		return false, err
	}
	return s.Gate.Confirm(answer), nil
}

// Record appends an audit record. A sink failure is logged and otherwise
// ignored.
func (s *Session) Record(ctx context.Context, message string) {
	if s.Audit == nil {
		return
	}

	r := audit.Record{SessionID: s.ID, Timestamp: s.clock(), Message: message}
	if err := s.Audit.Append(ctx, r); err != nil {
		logger.Warn("failed to write audit record", zap.Error(err), zap.String("message", message))
	}
}

// PerformDestructive confirms, runs the optional Before step, runs Do and
// records the outcome. Nothing runs when the gate is not passed.
func (s *Session) PerformDestructive(ctx context.Context, a DestructiveAction) error {
	question := a.Question
	if question == "" {
		question = fmt.Sprintf("Are you sure you want to %s '%s'?", a.Verb, a.Entity)
	}

	ok, err := s.Confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("operator declined", logger.Action(a.Verb), logger.Entity(a.Entity))
		return ErrDeclined
	}

	return s.Perform(ctx, a.Verb, a.Entity, a.Before, a.Do)
}

// Perform runs a state changing action without a confirmation gate and
// records its outcome.
func (s *Session) Perform(ctx context.Context, verb, entity string,
	before func(ctx context.Context) (string, error), do func(ctx context.Context) error) error {
	return s.perform(ctx, verb, entity, before, func(ctx context.Context) (string, error) {
		return "", do(ctx)
	})
}

// PerformNoted is Perform for actions that report a note, such as the
// location of a backup, to be kept in the audit record.
func (s *Session) PerformNoted(ctx context.Context, verb, entity string, do func(ctx context.Context) (string, error)) error {
	return s.perform(ctx, verb, entity, nil, do)
}

func (s *Session) perform(ctx context.Context, verb, entity string,
	before func(ctx context.Context) (string, error), do func(ctx context.Context) (string, error)) error {
	var notes []string
	if before != nil {
		note, err := before(ctx)
		if err != nil {
			s.Record(ctx, fmt.Sprintf("%s %s: aborted: %v", verb, entity, err))
			logger.Error("pre-step failed", logger.Action(verb), logger.Entity(entity), zap.Error(err))
			return ExternalFailure(verb+" "+entity, err)
		}
		notes = append(notes, note)
	}

	s.Printer.StartLoading("Working...")
	note, err := do(ctx)
	s.Printer.StopLoading()
	if err != nil {
		s.Record(ctx, fmt.Sprintf("%s %s: failed: %v", verb, entity, err))
		logger.Error("action failed", logger.Action(verb), logger.Entity(entity), zap.Error(err))
		return ExternalFailure(verb+" "+entity, err)
	}
	notes = append(notes, note)

	message := fmt.Sprintf("%s %s: succeeded", verb, entity)
	if notes = lo.Compact(notes); len(notes) > 0 {
		message += " (" + strings.Join(notes, ", ") + ")"
	}
	s.Record(ctx, message)
	logger.Info("action succeeded", logger.Action(verb), logger.Entity(entity))
	s.Printer.PrintS(fmt.Sprintf("%s '%s' succeeded", capitalize(verb), entity))
	return nil
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func capitalize(v string) string {
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}
