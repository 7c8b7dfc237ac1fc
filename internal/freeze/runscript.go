package freeze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// runScript executes the frozen script copy with the configured interpreter,
// working directory workDir, teeing combined stdout/stderr to console and to
// logPath. It returns the script's exit code; err is non-nil only when the
// script could not be started or the log could not be written.
func runScript(ctx context.Context, interpreter, scriptPath, workDir, logPath string, console io.Writer) (int, error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return -1, fmt.Errorf("create run log %s: %w", logPath, err)
	}
	defer logFile.Close()

	sink := io.Writer(logFile)
	if console != nil {
		sink = io.MultiWriter(logFile, console)
	}

	cmd := exec.CommandContext(ctx, interpreter, scriptPath)
	cmd.Dir = workDir
	cmd.Stdout = sink
	cmd.Stderr = sink

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	// A killed process also surfaces as an ExitError, so cancellation is
	// checked first.
	if ctx.Err() != nil {
		return -1, fmt.Errorf("script run canceled: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The script ran and failed; that's the caller's decision to make.
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("start %s %s: %w", interpreter, scriptPath, err)
}
