package dpkg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// BuildCommand is the Debian tool building a package from a source tree.
const BuildCommand = "dpkg-buildpackage"

// Runner executes an external command inside dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// BuildError is returned when dpkg-buildpackage exits with a non-zero status.
type BuildError struct {
	Args     []string
	ExitCode int
	Output   []byte
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
}

// Tail returns the last n lines of the captured output.
func (e *BuildError) Tail(n int) string {
	lines := strings.Split(strings.TrimRight(string(e.Output), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// BuildArgs returns the dpkg-buildpackage command line.
func BuildArgs(unsigned bool) []string {
	args := []string{BuildCommand, "-rfakeroot"}
	if unsigned {
		args = append(args, "-uc", "-us")
	}
	return args
}

// BuildPackage runs dpkg-buildpackage in the source tree dir.
// The captured output is returned, also when the command fails.
func BuildPackage(ctx context.Context, runner Runner, dir string, unsigned bool, logger hclog.Logger) ([]byte, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	args := BuildArgs(unsigned)
	logger.Info("building package", "dir", dir, "command", strings.Join(args, " "))

	output, err := runner.Run(ctx, dir, args[0], args[1:]...)
	logOutput(logger, output)
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return output, &BuildError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Output:   output,
			}
		}
		return output, errors.Wrapf(err, "running %s", args[0])
	}
	return output, nil
}

func logOutput(logger hclog.Logger, output []byte) {
	if !logger.IsDebug() {
		return
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		logger.Debug(scanner.Text())
	}
}
