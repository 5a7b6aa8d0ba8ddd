package dispatch

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"adminctl/internal/prompt"
	"adminctl/logger"
)

type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeInvalid
	OutcomeDeclined
	OutcomeFailed
	OutcomeExit
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeDeclined:
		return "declined"
	case OutcomeFailed:
		return "failed"
	case OutcomeExit:
		return "exit"
	case OutcomeClosed:
		return "closed"
	}
	return "unknown"
}

type Dispatcher struct {
	catalog *Catalog
}

func NewDispatcher(catalog *Catalog) *Dispatcher {
	return &Dispatcher{catalog: catalog}
}

// Dispatch runs the action bound to ordinal. Every handler error is
// reported here and turned into an Outcome, none of them end the loop.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, ordinal int) Outcome {
	action, ok := d.catalog.Lookup(ordinal)
	if !ok {
		s.Printer.PrintE("Invalid option, please try again")
		return OutcomeInvalid
	}
	if action.Exit {
		return OutcomeExit
	}

	logger.Info("executing action", logger.Action(action.Label), zap.Int("ordinal", ordinal))
	err := action.Handler(ctx, s)
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, prompt.ErrClosed):
		return OutcomeClosed
	case errors.Is(err, ErrDeclined):
		s.Printer.PrintW("Operation cancelled")
		return OutcomeDeclined
	case errors.Is(err, ErrInvalidSelection):
		s.Printer.PrintE(capitalize(err.Error()))
		return OutcomeInvalid
	default:
		s.Printer.PrintE("Error: " + err.Error())
		logger.Error("action returned error", logger.Action(action.Label), zap.Error(err))
		return OutcomeFailed
	}
}

// Run shows the menu and dispatches choices until the exit action is
// chosen, the input is closed, or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, s *Session) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.catalog.Render(s.Printer)
		input, err := s.Prompt.Ask("Enter your choice")
		if err != nil {
			return err
		}

		ordinal, err := ParseOrdinal(input)
		if err != nil {
			s.Printer.PrintE("Invalid option, please try again")
			continue
		}

		switch d.Dispatch(ctx, s, ordinal) {
		case OutcomeExit:
			s.Printer.Print("Goodbye!")
			return nil
		case OutcomeClosed:
			return prompt.ErrClosed
		}
	}
}
