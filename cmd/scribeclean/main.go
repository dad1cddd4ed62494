// Command scribeclean cleans up speech-to-text transcripts: it corrects words
// towards a custom vocabulary and strips fillers and stutters.
//
// Usage:
//
//	scribeclean serve --config config.yaml
//	scribeclean clean --words Kubernetes,Grafana < transcript.txt
//	scribeclean version
package main

import (
	"log/slog"
	"os"

	"github.com/MrWong99/scribeclean/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns a text logger on stderr whose level follows lvl.
func newLogger(lvl *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// levelVar returns a LevelVar initialised to level.
func levelVar(level config.LogLevel) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(level.SlogLevel())
	return v
}
