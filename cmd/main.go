package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"adminctl/internal/dispatch"
	"adminctl/internal/preflight"
	"adminctl/internal/prompt"
	"adminctl/logger"
	"adminctl/pkg/cmd"
	"adminctl/pkg/cmd/factory"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	root := cmd.New(factory.New())
	err := root.ExecuteContext(ctx)
	return exitCode(err)
}

// exitCode maps a command error to the process exit status. Closed input
// ends a menu the same way the exit option does, and a declined
// confirmation is an outcome rather than a failure.
func exitCode(err error) int {
	if err == nil || errors.Is(err, prompt.ErrClosed) {
		return 0
	}
	if errors.Is(err, dispatch.ErrDeclined) {
		_, _ = fmt.Fprintln(os.Stderr, color.YellowString("Operation cancelled"))
		return 0
	}

	_, _ = fmt.Fprintln(os.Stderr, color.RedString("Error: %s", err.Error()))

	var pe *preflight.PreconditionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 1
}
