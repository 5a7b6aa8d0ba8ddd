package dispatch

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/audit"
	"adminctl/internal/audit/audittest"
	"adminctl/internal/cmdutil"
	"adminctl/internal/prompt"
	"adminctl/internal/prompt/prompttest"
)

func newTestSession(answers ...string) (*Session, *audittest.Memory, *bytes.Buffer) {
	out := &bytes.Buffer{}
	mem := &audittest.Memory{}
	s := NewSession(&prompttest.Scripted{Answers: answers}, cmdutil.NewPrinter(out, false), mem, Gate{Token: "yes"})
	s.WithClock(func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) })
	return s, mem, out
}

func staticList(items ...string) ListFunc[string] {
	return func(context.Context) ([]string, error) {
		return items, nil
	}
}

func TestResolveByOrdinal(t *testing.T) {
	list := staticList("app_db", "staging_db", "reports")

	tests := []struct {
		name     string
		ordinal  int
		expected string
		err      error
	}{
		{name: "first", ordinal: 1, expected: "app_db"},
		{name: "last", ordinal: 3, expected: "reports"},
		{name: "zero", ordinal: 0, err: ErrNotFound},
		{name: "negative", ordinal: -1, err: ErrNotFound},
		{name: "past end", ordinal: 4, err: ErrNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ResolveByOrdinal(context.Background(), list, test.ordinal)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				assert.ErrorIs(t, err, ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestResolveByOrdinal_EmptyListing(t *testing.T) {
	_, err := ResolveByOrdinal(context.Background(), staticList(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveByOrdinal_FetchesEveryCall(t *testing.T) {
	calls := 0
	list := func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"a", "b"}, nil
		}
		return []string{"b"}, nil
	}

	got, err := ResolveByOrdinal(context.Background(), list, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	_, err = ResolveByOrdinal(context.Background(), list, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, calls)
}

func TestResolveByOrdinal_ListFailure(t *testing.T) {
	list := func(context.Context) ([]string, error) {
		return nil, errors.New("connection refused")
	}
	_, err := ResolveByOrdinal(context.Background(), list, 1)

	var te *ToolError
	assert.ErrorAs(t, err, &te)
}

func TestGate_Confirm(t *testing.T) {
	gate := Gate{Token: "yes"}

	for _, accepted := range []string{"yes", "YES", "Yes"} {
		assert.True(t, gate.Confirm(accepted), accepted)
	}
	for _, rejected := range []string{"", "y", "no", "yes ", " yes", "yess", "Y "} {
		assert.False(t, gate.Confirm(rejected), "%q", rejected)
	}

	short := Gate{Token: "y"}
	assert.True(t, short.Confirm("Y"))
	assert.False(t, short.Confirm("Y "))
	assert.False(t, short.Confirm("yes"))

	assert.False(t, Gate{}.Confirm(""), "an empty token never confirms")
}

func TestPerformDestructive_DeclinedDoesNotInvoke(t *testing.T) {
	for _, answer := range []string{"", "no", "y"} {
		s, mem, _ := newTestSession(answer)
		called := false

		err := s.PerformDestructive(context.Background(), DestructiveAction{
			Verb:   "drop database",
			Entity: "app_db",
			Before: func(context.Context) (string, error) {
				called = true
				return "", nil
			},
			Do: func(context.Context) error {
				called = true
				return nil
			},
		})

		assert.ErrorIs(t, err, ErrDeclined)
		assert.False(t, called, "answer %q must not run the action", answer)
		assert.Empty(t, mem.Records)
	}
}

func TestPerformDestructive_ClosedInput(t *testing.T) {
	s, _, _ := newTestSession()
	err := s.PerformDestructive(context.Background(), DestructiveAction{
		Verb: "drop user",
		Do: func(context.Context) error {
			t.Fatal("must not run")
			return nil
		},
	})
	assert.ErrorIs(t, err, prompt.ErrClosed)
}

func TestPerformDestructive_BeforeRunsFirst(t *testing.T) {
	s, mem, _ := newTestSession("yes")
	var calls []string

	err := s.PerformDestructive(context.Background(), DestructiveAction{
		Verb:   "drop database",
		Entity: "staging_db",
		Before: func(context.Context) (string, error) {
			calls = append(calls, "backup")
			return "backup /tmp/staging_db.sql", nil
		},
		Do: func(context.Context) error {
			calls = append(calls, "drop")
			return errors.New("access denied")
		},
	})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{"backup", "drop"}, calls)
	require.Len(t, mem.Records, 1)
	assert.Equal(t, "drop database staging_db: failed: access denied", mem.Records[0].Message)
	assert.Equal(t, s.ID, mem.Records[0].SessionID)
}

func TestPerformDestructive_BeforeFailureSkipsDo(t *testing.T) {
	s, mem, _ := newTestSession("yes")

	err := s.PerformDestructive(context.Background(), DestructiveAction{
		Verb:   "drop database",
		Entity: "app_db",
		Before: func(context.Context) (string, error) {
			return "", errors.New("mysqldump: not found")
		},
		Do: func(context.Context) error {
			t.Fatal("must not drop without a backup")
			return nil
		},
	})

	assert.Error(t, err)
	require.Len(t, mem.Records, 1)
	assert.Contains(t, mem.Records[0].Message, "aborted")
}

func TestPerformDestructive_Success(t *testing.T) {
	s, mem, out := newTestSession("YES")

	err := s.PerformDestructive(context.Background(), DestructiveAction{
		Verb:   "revoke privileges",
		Entity: "'app'@'%'",
		Do:     func(context.Context) error { return nil },
	})

	require.NoError(t, err)
	require.Len(t, mem.Records, 1)
	assert.Equal(t, "revoke privileges 'app'@'%': succeeded", mem.Records[0].Message)
	assert.Equal(t, time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC), mem.Records[0].Timestamp)
	assert.Contains(t, out.String(), "succeeded")
}

func TestPerformNoted(t *testing.T) {
	s, mem, _ := newTestSession()

	err := s.PerformNoted(context.Background(), "backup database", "app_db", func(context.Context) (string, error) {
		return "app_db_20260506_070809.sql", nil
	})

	require.NoError(t, err)
	require.Len(t, mem.Records, 1)
	assert.Equal(t, "backup database app_db: succeeded (app_db_20260506_070809.sql)", mem.Records[0].Message)
}

type brokenSink struct{}

func (brokenSink) Append(context.Context, audit.Record) error {
	return errors.New("read-only file system")
}

func TestRecord_SinkFailureIsNotFatal(t *testing.T) {
	s, _, _ := newTestSession("yes")
	s.Audit = brokenSink{}

	err := s.PerformDestructive(context.Background(), DestructiveAction{
		Verb:   "unblock address",
		Entity: "10.0.0.1",
		Do:     func(context.Context) error { return nil },
	})
	assert.NoError(t, err)
}

func TestDispatcher_Run(t *testing.T) {
	var calls []string
	catalog := NewCatalog("Test",
		Action{Label: "Succeed", Category: "A", Handler: func(context.Context, *Session) error {
			calls = append(calls, "succeed")
			return nil
		}},
		Action{Label: "Fail", Category: "A", Handler: func(context.Context, *Session) error {
			calls = append(calls, "fail")
			return ExternalFailure("mysql", errors.New("exit status 1"))
		}},
		Action{Label: "Decline", Category: "B", Handler: func(ctx context.Context, s *Session) error {
			calls = append(calls, "decline")
			return s.PerformDestructive(ctx, DestructiveAction{Verb: "drop", Entity: "x", Do: func(context.Context) error {
				calls = append(calls, "dropped")
				return nil
			}})
		}},
	)

	s, _, out := newTestSession("2", "42", "abc", "3", "no", "1", "0")
	err := NewDispatcher(catalog).Run(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, []string{"fail", "decline", "succeed"}, calls)
	assert.Contains(t, out.String(), "Error: mysql: exit status 1")
	assert.Contains(t, out.String(), "Invalid option")
	assert.Contains(t, out.String(), "Operation cancelled")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestDispatcher_RunStopsOnClosedInput(t *testing.T) {
	catalog := NewCatalog("Test", Action{Label: "Noop", Handler: func(context.Context, *Session) error { return nil }})
	s, _, _ := newTestSession("1")

	err := NewDispatcher(catalog).Run(context.Background(), s)
	assert.ErrorIs(t, err, prompt.ErrClosed)
}

func TestDispatch_UnknownOrdinal(t *testing.T) {
	catalog := NewCatalog("Test")
	s, mem, _ := newTestSession()

	assert.Equal(t, OutcomeInvalid, NewDispatcher(catalog).Dispatch(context.Background(), s, 7))
	assert.Equal(t, OutcomeExit, NewDispatcher(catalog).Dispatch(context.Background(), s, ExitOrdinal))
	assert.Empty(t, mem.Records)
}

func TestCatalog_Render(t *testing.T) {
	noop := func(context.Context, *Session) error { return nil }
	catalog := NewCatalog("IP Manager",
		Action{Label: "List", Category: "Rules", Handler: noop},
		Action{Label: "History", Category: "Tools", Handler: noop},
		Action{Label: "Block", Category: "Rules", Handler: noop},
	)

	out := &bytes.Buffer{}
	catalog.Render(cmdutil.NewPrinter(out, false))

	expected := "\n===== IP Manager =====\nRules\n   1) List\n   3) Block\nTools\n   2) History\n   0) Exit\n"
	assert.Equal(t, expected, out.String())
	assert.Len(t, catalog.Actions(), 4)
}

func TestChoose(t *testing.T) {
	s, _, out := newTestSession("2")
	got, err := Choose(context.Background(), s, Listing[string]{
		Noun:  "database",
		List:  staticList("app_db", "staging_db"),
		Label: func(v string) string { return v },
	})

	require.NoError(t, err)
	assert.Equal(t, "staging_db", got)
	assert.Contains(t, out.String(), "staging_db")
}

func TestChoose_EmptyListing(t *testing.T) {
	s, _, _ := newTestSession()
	_, err := Choose(context.Background(), s, Listing[string]{
		Noun:  "table",
		List:  staticList(),
		Label: func(v string) string { return v },
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestShowHistory(t *testing.T) {
	s, mem, out := newTestSession()
	s.Record(context.Background(), "block address 10.0.0.1: succeeded")
	s.Record(context.Background(), "unblock address 10.0.0.1: succeeded")

	require.NoError(t, ShowHistory(mem)(context.Background(), s))
	text := out.String()
	assert.Contains(t, text, "2026-05-06 07:08:09")
	// newest first
	assert.Less(t, strings.Index(text, "| unblock address"), strings.Index(text, "| block address"))
}

func TestShowHistory_Empty(t *testing.T) {
	s, mem, out := newTestSession()
	require.NoError(t, ShowHistory(mem)(context.Background(), s))
	assert.Contains(t, out.String(), "No audit records yet")
}
