package formatter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/repoprompt/repoprompt/internal/types"
)

const (
	// DefaultExecutableName is the files-to-prompt binary looked up on PATH.
	DefaultExecutableName = "files-to-prompt"
	// DefaultInvocationTimeout bounds one formatter invocation.
	DefaultInvocationTimeout = 300 * time.Second
)

// CommandRunner executes the external formatter as a child process with no
// input stream attached, captures standard output and standard error
// separately, and enforces a wall-clock timeout.
type CommandRunner struct {
	executable string
	timeout    time.Duration
	logger     *zap.Logger
}

// RunnerOptions configures a CommandRunner. Zero values fall back to the
// package defaults.
type RunnerOptions struct {
	Executable string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewCommandRunner constructs the external-process Formatter implementation.
func NewCommandRunner(options RunnerOptions) *CommandRunner {
	executable := strings.TrimSpace(options.Executable)
	if executable == "" {
		executable = DefaultExecutableName
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultInvocationTimeout
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRunner{executable: executable, timeout: timeout, logger: logger}
}

// Format runs the formatter over the resolved paths and returns its
// captured standard output. When OutputFile is set the formatter writes the
// artifact there as well; the runner still returns whatever reached
// standard output and never reads the destination file back.
func (runner *CommandRunner) Format(ctx context.Context, paths []string, options Options) (string, error) {
	arguments := BuildArguments(paths, options)

	invocationContext, cancel := context.WithTimeout(ctx, runner.timeout)
	defer cancel()

	formatterCommand := exec.CommandContext(invocationContext, runner.executable, arguments...)
	// The formatter never expects interactive input; a nil Stdin attaches
	// the null device.
	formatterCommand.Stdin = nil
	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	formatterCommand.Stdout = &standardOutputBuffer
	formatterCommand.Stderr = &standardErrorBuffer

	runner.logger.Info("invoking formatter",
		zap.String("executable", runner.executable),
		zap.Strings("arguments", arguments))
	runError := formatterCommand.Run()

	if invocationContext.Err() == context.DeadlineExceeded {
		return "", types.NewFailure(types.FailureFormatterTimeout, context.DeadlineExceeded,
			"%s timed out after %s", runner.executable, runner.timeout)
	}
	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			return "", types.NewFailure(types.FailureFormatterFailed, runError,
				"%s exited with status %d: %s",
				runner.executable, exitError.ExitCode(), strings.TrimSpace(standardErrorBuffer.String()))
		}
		return "", types.NewFailure(types.FailureFormatterLaunchFailed, runError,
			"launching %s: %v", runner.executable, runError)
	}
	return standardOutputBuffer.String(), nil
}

var _ Formatter = (*CommandRunner)(nil)
