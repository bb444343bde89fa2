package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/julien-sobczak/tap2deb/internal/dpkg"
	"github.com/julien-sobczak/tap2deb/internal/tap2deb"
)

// Exit codes
const (
	exitError      = 1
	exitUsage      = 2
	exitBuildError = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(func(level string) *tap2deb.Generator {
		return tap2deb.NewGenerator(newLogger(level, os.Stderr))
	})
	err := cmd.ExecuteContext(ctx)
	stop()
	os.Exit(report(err, os.Stderr))
}

func newLogger(level string, output io.Writer) hclog.Logger {
	if level == "" {
		level = os.Getenv("TAP2DEB_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "tap2deb",
		Level:  hclog.LevelFromString(level),
		Output: output,
	})
}

// report prints err and returns the process exit code.
func report(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "tap2deb: %s\n", err)

	var usageErr *tap2deb.UsageError
	var buildErr *dpkg.BuildError
	switch {
	case errors.As(err, &usageErr):
		return exitUsage
	case errors.As(err, &buildErr):
		if tail := buildErr.Tail(20); tail != "" {
			fmt.Fprintln(w, tail)
		}
		return exitBuildError
	}
	return exitError
}
