//go:build !unix

package main

import (
	"io"

	"github.com/deletia/deletia/internal/pacing"
)

// watchScoreboard is a no-op on platforms without SIGUSR1.
func watchScoreboard(_ *pacing.Scoreboard, _ io.Writer) func() {
	return func() {}
}
