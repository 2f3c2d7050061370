// Package runner executes lifecycle scripts as external processes.
//
// Every call yields exactly one classified Outcome; launch failures and
// timeouts are outcomes, not errors, and nothing is retried here.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"mkctf/internal/logging"
)

// ErrInvalidInvocation is reported (as a StartFailed outcome) for an empty argv
// or a non-positive timeout.
var ErrInvalidInvocation = errors.New("invalid invocation")

// waitDelay bounds how long Wait keeps draining stdout/stderr after the child
// exits or is killed, in case a stray descendant still holds the pipes.
const waitDelay = 500 * time.Millisecond

// Func is the signature of Run, for callers that want to substitute it.
type Func func(ctx context.Context, argv []string, dir string, timeout time.Duration) Outcome

// Run starts argv[0] with the remaining arguments in dir and waits at most
// timeout for it to exit. argv[0] is used as given: a path containing a
// separator is resolved against dir, a bare name is looked up in PATH, so
// callers that mean a local script must pass "./name".
//
// On timeout the child's whole process group is killed with SIGKILL and
// reaped before Run returns. Cancelling ctx has the same effect.
func Run(ctx context.Context, argv []string, dir string, timeout time.Duration) Outcome {
	runID := uuid.NewString()
	log := logging.New("runner").With("run_id", runID)
	start := time.Now()

	finish := func(o Outcome) Outcome {
		o.RunID = runID
		o.Elapsed = time.Since(start)
		log.Debug("script finished", "outcome", o.Kind.String(), "exit_code", o.ExitCode, "elapsed", o.Elapsed)
		return o
	}

	if len(argv) == 0 || argv[0] == "" {
		return finish(startFailed(fmt.Errorf("%w: empty argv", ErrInvalidInvocation)))
	}
	if timeout <= 0 {
		return finish(startFailed(fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidInvocation, timeout)))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("script started", "argv", argv, "dir", dir, "timeout", timeout)
	if err := cmd.Start(); err != nil {
		return finish(startFailed(err))
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if kerr := killProcessGroup(cmd.Process); kerr != nil {
			log.Warn("kill failed", "pid", cmd.Process.Pid, "error", kerr)
		}
		<-done
		return finish(timedOut(stdout.Bytes(), stderr.Bytes(), ctx.Err()))
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		log.Warn("wait failed", "error", err)
	}
	state := cmd.ProcessState
	if state == nil {
		return finish(startFailed(fmt.Errorf("wait: %w", err)))
	}
	return finish(completed(state.ExitCode(), signalOf(state), stdout.Bytes(), stderr.Bytes()))
}
