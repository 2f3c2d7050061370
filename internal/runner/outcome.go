package runner

import (
	"fmt"
	"time"
)

// Kind classifies how one script invocation ended.
type Kind int

const (
	// Completed means the process exited on its own before the deadline.
	Completed Kind = iota + 1
	// TimedOut means the process was still running at the deadline and was killed.
	TimedOut
	// StartFailed means the process could not be launched at all.
	StartFailed
)

func (k Kind) String() string {
	switch k {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed-out"
	case StartFailed:
		return "start-failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the classified result of one invocation. Exactly one variant is
// populated, selected by Kind:
//
//	Completed:   ExitCode, Signal, Stdout, Stderr
//	TimedOut:    Stdout, Stderr (whatever was captured before the kill), Err
//	StartFailed: Err
type Outcome struct {
	Kind     Kind
	ExitCode int
	// Signal names the signal that ended a Completed process, if any.
	Signal string
	Stdout []byte
	Stderr []byte
	Err    error

	RunID   string
	Elapsed time.Duration
}

// OK reports a completed run with exit status 0.
func (o Outcome) OK() bool {
	return o.Kind == Completed && o.ExitCode == 0
}

func (o Outcome) String() string {
	switch o.Kind {
	case Completed:
		if o.Signal != "" {
			return fmt.Sprintf("completed (signal %s)", o.Signal)
		}
		return fmt.Sprintf("completed (exit %d)", o.ExitCode)
	case TimedOut:
		return fmt.Sprintf("timed out after %s", o.Elapsed.Round(time.Millisecond))
	case StartFailed:
		return fmt.Sprintf("failed to start: %v", o.Err)
	}
	return o.Kind.String()
}

func completed(code int, signal string, stdout, stderr []byte) Outcome {
	return Outcome{Kind: Completed, ExitCode: code, Signal: signal, Stdout: stdout, Stderr: stderr}
}

func timedOut(stdout, stderr []byte, err error) Outcome {
	return Outcome{Kind: TimedOut, ExitCode: -1, Stdout: stdout, Stderr: stderr, Err: err}
}

func startFailed(err error) Outcome {
	return Outcome{Kind: StartFailed, ExitCode: -1, Err: err}
}
