// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package cmdrunner is the single place this codebase spawns short-lived
// subprocesses. Programs are always invoked with an argument vector, never
// through a shell, and every call is bounded by a timeout and an output cap.
package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a call when the runner has no explicit timeout.
	DefaultTimeout = 30 * time.Second
	// MaxOutputBytes caps combined captured output per stream.
	MaxOutputBytes = 10 << 20
)

// Result is the uniform outcome of a subprocess invocation. A nonzero exit
// code or a timeout is not an error to the caller; it shows up as
// Succeeded=false with FailureDetail set.
type Result struct {
	Succeeded     bool
	Stdout        string
	Stderr        string
	FailureDetail string
}

// Output returns stdout and stderr joined, for failure messages.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// Runner runs a program and reports a Result.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs real subprocesses with a per-call timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// New returns an ExecRunner with the given timeout (DefaultTimeout if zero).
func New(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args and waits until the process exits or the
// deadline passes, whichever comes first. Completion is raced against an
// independent timer: a hung child, even one whose grandchildren keep the
// output pipes open, cannot block the caller past the deadline.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(name, args...)
	stdout := newCappedBuffer(MaxOutputBytes)
	stderr := newCappedBuffer(MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		detail := fmt.Sprintf("start %s: %v", name, err)
		if errors.Is(err, exec.ErrNotFound) {
			detail = fmt.Sprintf("command not found: %s", name)
		}
		return Result{FailureDetail: detail}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			res.FailureDetail = fmt.Sprintf("%s %s failed: %v", name, strings.Join(args, " "), err)
			return res
		}
		res.Succeeded = true
		return res
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		// Deliberately not waiting on done: Wait can stay blocked on the
		// pipe-copy goroutines if a descendant inherited the pipes.
		return Result{
			Stdout:        stdout.String(),
			Stderr:        stderr.String(),
			FailureDetail: fmt.Sprintf("%s %s timed out after %s", name, strings.Join(args, " "), timeout),
		}
	}
}

// cappedBuffer is a concurrency-safe buffer that silently discards writes
// past its cap. The exec pipe-copy goroutine may still be writing after Run
// has returned on a timeout, hence the lock.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := b.max - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
