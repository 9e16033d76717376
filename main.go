package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/umsi-mads/mads/cmd"
	errUtils "github.com/umsi-mads/mads/errors"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		// Exit with the POSIX code for the signal (128 + signal number).
		if s, ok := sig.(syscall.Signal); ok {
			errUtils.OsExit(128 + int(s))
		}
		errUtils.OsExit(130)
	}()

	errUtils.OsExit(cmd.Execute())
}
