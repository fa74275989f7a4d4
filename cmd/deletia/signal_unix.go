//go:build unix

package main

import (
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/deletia/deletia/internal/pacing"
)

// watchScoreboard dumps the pacing scoreboard to w whenever the process
// receives SIGUSR1. The returned function stops the watcher.
func watchScoreboard(sb *pacing.Scoreboard, w io.Writer) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGUSR1)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				_, _ = sb.WriteTo(w)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
