package epsonscan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
)

// Stream identifies which child output channel produced a line.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// ProcessResult is the outcome of one epsonscan2 invocation.
//
// LaunchErr is set when the process could not be started at all; the other
// fields are then zero. Err carries any failure after launch: a non-zero exit,
// termination by signal, context cancellation, or an output read error.
type ProcessResult struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	LaunchErr error
	Err       error
}

// Launched reports whether the process started.
func (r ProcessResult) Launched() bool {
	return r.LaunchErr == nil
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(Stream, string)) ProcessResult
}

const maxLineBytes = 1 << 20

// commandExecutor executes commands using os/exec. Cancelling ctx kills the
// child process.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(Stream, string)) ProcessResult {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ProcessResult{LaunchErr: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ProcessResult{LaunchErr: fmt.Errorf("stderr pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return ProcessResult{LaunchErr: fmt.Errorf("start command: %w", err)}
	}

	var (
		wg      sync.WaitGroup
		once    sync.Once
		scanErr error
		stdoutB bytes.Buffer
		stderrB bytes.Buffer
		lineMu  sync.Mutex
	)

	forward := func(stream Stream, line string) {
		if onLine == nil {
			return
		}
		lineMu.Lock()
		defer lineMu.Unlock()
		onLine(stream, line)
	}

	scan := func(r io.Reader, capture *bytes.Buffer, stream Stream) {
		defer wg.Done()
		tee := io.TeeReader(r, capture)
		scanner := bufio.NewScanner(tee)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			forward(stream, trimCR(scanner.Text()))
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
			// Keep capturing so the pipe drains and the process can exit.
			_, _ = io.Copy(io.Discard, tee)
		}
	}

	wg.Add(2)
	go scan(stdout, &stdoutB, StreamStdout)
	go scan(stderr, &stderrB, StreamStderr)
	wg.Wait()

	waitErr := cmd.Wait()
	result := ProcessResult{
		ExitCode: exitCode(cmd, waitErr),
		Stdout:   stdoutB.String(),
		Stderr:   stderrB.String(),
	}
	switch {
	case ctx.Err() != nil:
		result.Err = fmt.Errorf("command interrupted: %w", ctx.Err())
	case waitErr != nil:
		result.Err = fmt.Errorf("wait command: %w", waitErr)
	case scanErr != nil:
		result.Err = fmt.Errorf("read output: %w", scanErr)
	}
	return result
}

// exitCode follows the shell convention of 128+signal for processes killed
// by a signal, so an aborting epsonscan2 reports 134.
func exitCode(cmd *exec.Cmd, waitErr error) int {
	state := cmd.ProcessState
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		state = exitErr.ProcessState
	}
	if state == nil {
		return -1
	}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return state.ExitCode()
}

func trimCR(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
