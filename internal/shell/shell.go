// Package shell runs external administration binaries.
package shell

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

type (
	Command struct {
		Name   string
		Args   []string
		Env    []string
		Stdin  io.Reader
		Stdout io.Writer
	}

	Runner interface {
		Run(ctx context.Context, cmd Command) error
	}

	runner struct{}
)

func NewRunner() Runner {
	return &runner{}
}

// Run executes cmd and waits for it. Env entries are added to the current
// environment. A non-zero exit is returned with the captured stderr.
func (r runner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout

	stderr := &bytes.Buffer{}
	c.Stderr = stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.Wrapf(err, "%s: %s", cmd.Name, msg)
		}
		return errors.Wrap(err, cmd.Name)
	}
	return nil
}

// Output runs cmd and returns what it wrote to stdout.
func Output(ctx context.Context, r Runner, cmd Command) (string, error) {
	out := &bytes.Buffer{}
	cmd.Stdout = out
	err := r.Run(ctx, cmd)
	return out.String(), err
}
