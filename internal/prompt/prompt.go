// Package prompt reads operator input one line at a time.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

// ErrClosed is returned once the input stream ends or the operator interrupts.
var ErrClosed = errors.New("input closed")

type (
	Prompter interface {
		// Ask returns the raw response without the line terminator.
		Ask(label string) (string, error)
		// Secret reads a response without echoing it.
		Secret(label string) (string, error)
	}

	terminal struct {
		stdin  io.ReadCloser
		stdout io.WriteCloser
	}

	lineReader struct {
		scanner *bufio.Scanner
		out     io.Writer
	}
)

// NewTerminal returns a promptui backed Prompter for an interactive TTY.
func NewTerminal(stdin io.ReadCloser, stdout io.WriteCloser) Prompter {
	return &terminal{stdin: stdin, stdout: stdout}
}

func (t terminal) Ask(label string) (string, error) {
	return t.run(promptui.Prompt{Label: label, Stdin: t.stdin, Stdout: t.stdout})
}

func (t terminal) Secret(label string) (string, error) {
	return t.run(promptui.Prompt{Label: label, Mask: '*', Stdin: t.stdin, Stdout: t.stdout})
}

func (t terminal) run(p promptui.Prompt) (string, error) {
	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", err
	}
	return result, nil
}

// NewLineReader returns a Prompter reading newline terminated responses
// from in, used when stdin is not a terminal and in tests.
func NewLineReader(in io.Reader, out io.Writer) Prompter {
	return &lineReader{scanner: bufio.NewScanner(in), out: out}
}

func (l *lineReader) Ask(label string) (string, error) {
	_, _ = fmt.Fprintf(l.out, "%s: ", label)
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrClosed
	}
	return strings.TrimSuffix(l.scanner.Text(), "\r"), nil
}

func (l *lineReader) Secret(label string) (string, error) {
	return l.Ask(label)
}
