//go:build unix

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Completed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "status", "echo up\n>&2 echo warn\nexit 0\n")

	o := Run(context.Background(), []string{"./status"}, dir, 5*time.Second)
	if o.Kind != Completed {
		t.Fatalf("Kind = %v (%v), want completed", o.Kind, o.Err)
	}
	if !o.OK() {
		t.Errorf("OK = false for exit %d", o.ExitCode)
	}
	if string(o.Stdout) != "up\n" || string(o.Stderr) != "warn\n" {
		t.Errorf("stdout=%q stderr=%q", o.Stdout, o.Stderr)
	}
	if o.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "build", ">&2 echo \"not implemented.\"\nexit 4\n")

	o := Run(context.Background(), []string{"./build"}, dir, 5*time.Second)
	if o.Kind != Completed || o.ExitCode != 4 {
		t.Fatalf("got %v exit %d, want completed exit 4", o.Kind, o.ExitCode)
	}
	if o.OK() {
		t.Error("OK = true for exit 4")
	}
	if !strings.Contains(string(o.Stderr), "not implemented.") {
		t.Errorf("stderr = %q", o.Stderr)
	}
}

func TestRun_RunsInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "where", "pwd\n")

	o := Run(context.Background(), []string{"./where"}, dir, 5*time.Second)
	if !o.OK() {
		t.Fatalf("outcome %v", o)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(o.Stdout)))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestRun_TimedOut(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "child.pid")
	writeScript(t, dir, "deploy", "echo starting\nsleep 30 &\necho $! > "+pidFile+"\nwait\n")

	timeout := 300 * time.Millisecond
	start := time.Now()
	o := Run(context.Background(), []string{"./deploy"}, dir, timeout)
	elapsed := time.Since(start)

	if o.Kind != TimedOut {
		t.Fatalf("Kind = %v, want timed-out", o.Kind)
	}
	if !errors.Is(o.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want DeadlineExceeded", o.Err)
	}
	if elapsed > timeout+3*time.Second {
		t.Errorf("Run took %s for a %s timeout", elapsed, timeout)
	}
	if !strings.Contains(string(o.Stdout), "starting") {
		t.Logf("partial stdout not captured: %q", o.Stdout)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("read child pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if processGone(pid) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("background child %d still running after timeout", pid)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// processGone reports whether pid no longer runs. An orphan killed with the
// group may linger as a zombie until init reaps it; that counts as gone.
func processGone(pid int) bool {
	if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
		return true
	}
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return false
	}
	s := string(data)
	i := strings.LastIndexByte(s, ')')
	if i < 0 || i+2 >= len(s) {
		return false
	}
	return s[i+2] == 'Z'
}

func TestRun_ParentCancel(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hang", "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	o := Run(ctx, []string{"./hang"}, dir, time.Minute)
	if o.Kind != TimedOut || !errors.Is(o.Err, context.Canceled) {
		t.Errorf("got %v / %v, want timed-out with context.Canceled", o.Kind, o.Err)
	}
}

func TestRun_StartFailed(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "plain")
	if err := os.WriteFile(notExec, []byte("echo hi\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		argv    []string
		dir     string
		timeout time.Duration
	}{
		{"missing executable", []string{"./does-not-exist"}, dir, time.Second},
		{"missing in PATH", []string{"mkctf-no-such-binary"}, dir, time.Second},
		{"missing dir", []string{"./x"}, filepath.Join(dir, "nope"), time.Second},
		{"empty argv", nil, dir, time.Second},
		{"zero timeout", []string{"/bin/true"}, dir, 0},
	}
	if os.Geteuid() != 0 {
		tests = append(tests, struct {
			name    string
			argv    []string
			dir     string
			timeout time.Duration
		}{"permission denied", []string{"./plain"}, dir, time.Second})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Run(context.Background(), tt.argv, tt.dir, tt.timeout)
			if o.Kind != StartFailed {
				t.Fatalf("Kind = %v, want start-failed", o.Kind)
			}
			if o.Err == nil {
				t.Error("Err is nil for start-failed outcome")
			}
			if len(o.Stdout) != 0 || len(o.Stderr) != 0 {
				t.Errorf("start-failed outcome carries output: %q / %q", o.Stdout, o.Stderr)
			}
		})
	}
}

func TestRun_InvalidInvocation(t *testing.T) {
	o := Run(context.Background(), []string{}, t.TempDir(), time.Second)
	if !errors.Is(o.Err, ErrInvalidInvocation) {
		t.Errorf("Err = %v, want ErrInvalidInvocation", o.Err)
	}
}

func TestRun_KilledBySignal(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "suicide", "kill -TERM $$\nsleep 5\n")

	o := Run(context.Background(), []string{"./suicide"}, dir, 5*time.Second)
	if o.Kind != Completed {
		t.Fatalf("Kind = %v, want completed", o.Kind)
	}
	if o.Signal == "" || o.ExitCode != -1 {
		t.Errorf("Signal=%q ExitCode=%d, want a signal and -1", o.Signal, o.ExitCode)
	}
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		Completed:   "completed",
		TimedOut:    "timed-out",
		StartFailed: "start-failed",
		Kind(9):     "kind(9)",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
