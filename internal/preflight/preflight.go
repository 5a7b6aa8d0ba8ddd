// Package preflight checks the conditions a menu needs before it starts.
package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// PreconditionError is fatal. The process exits with Code.
type PreconditionError struct {
	Reason string
	Code   int
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

func failed(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...), Code: 1}
}

// Failed wraps err as a precondition failure.
func Failed(err error) error {
	if err == nil {
		return nil
	}
	return failed("%s", err.Error())
}

var geteuid = unix.Geteuid

func RequireRoot() error {
	if geteuid() != 0 {
		return failed("this command must be run as root")
	}
	return nil
}

var lookPath = exec.LookPath

// RequireBinaries returns an error naming the first binary not found in PATH.
func RequireBinaries(names ...string) error {
	for _, name := range names {
		if _, err := lookPath(name); err != nil {
			return failed("required command %q not found in PATH", name)
		}
	}
	return nil
}

func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return failed("file %s not found", path)
	}
	if info.IsDir() {
		return failed("%s is a directory", path)
	}
	return nil
}
