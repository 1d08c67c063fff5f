package scripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"
)

// Exit codes returned by Run.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ErrUnknownScript is returned by Lookup for unregistered names.
var ErrUnknownScript = errors.New("scripts: unknown script")

// Script is a single-shot procedure run against a connected environment.
type Script func(ctx context.Context, env Environment, out io.Writer) error

var registry = map[string]Script{
	"deploy": DeployBullBear,
}

// Lookup returns the script registered under name.
func Lookup(name string) (Script, error) {
	script, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScript, name, Names())
	}
	return script, nil
}

// Names returns the registered script names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named script once and maps its outcome to a process exit code.
// Failures of any kind are logged in full and reported as ExitFailure.
func Run(ctx context.Context, name string, env Environment, out io.Writer, logger *slog.Logger) int {
	logger = logger.With(slog.String("script", name))

	script, err := Lookup(name)
	if err != nil {
		logger.Error("script failed", slog.String("error", err.Error()))
		return ExitFailure
	}

	start := time.Now()
	if err := script(ctx, env, out); err != nil {
		logger.Error("script failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return ExitFailure
	}

	logger.Debug("script finished", slog.Duration("elapsed", time.Since(start)))
	return ExitSuccess
}
