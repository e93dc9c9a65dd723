// Command hyperctl drives a schema-described hypermedia API from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
)

// Exit codes.
const (
	exitOK           = 0
	exitError        = 1
	exitUnauthorized = 2
	exitNotFound     = 3
	exitTimeout      = 4
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.HasCode(err, errors.ErrCodeUnauthorized):
		return exitUnauthorized
	case hyper.IsNotFound(err):
		return exitNotFound
	case errors.IsTimeout(err):
		return exitTimeout
	default:
		return exitError
	}
}
