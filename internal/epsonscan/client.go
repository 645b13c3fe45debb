package epsonscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"scankiosk/internal/logging"
)

// ErrNotInstalled reports that epsonscan2 is missing or unusable.
var ErrNotInstalled = errors.New("epsonscan2 not installed")

// CommandError describes a failed epsonscan2 invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	cmd := strings.TrimSpace("epsonscan2 " + strings.Join(e.Args, " "))
	switch {
	case e.Err != nil && e.Stderr != "":
		return fmt.Sprintf("%s: %v: %s", cmd, e.Err, e.Stderr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	case e.Stderr != "":
		return fmt.Sprintf("%s: %s", cmd, e.Stderr)
	default:
		return cmd + ": no output received"
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

const (
	installUnknown int32 = iota
	installAvailable
	installUnavailable
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps epsonscan2 CLI interactions.
type Client struct {
	binary  string
	logger  *slog.Logger
	exec    Executor
	install atomic.Int32
}

// New constructs an epsonscan2 client.
func New(binary string, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("epsonscan2 binary required")
	}
	client := &Client{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "epsonscan"),
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable name.
func (c *Client) Binary() string {
	return c.binary
}

// Installed reports whether epsonscan2 is present and usable. The verdict is
// computed on first use and kept for the life of the client; concurrent first
// calls may each probe.
func (c *Client) Installed(ctx context.Context) bool {
	switch c.install.Load() {
	case installAvailable:
		return true
	case installUnavailable:
		return false
	}

	res := c.exec.Run(ctx, c.binary, nil, c.lineLogger(ctx, "probe"))
	if ctx.Err() != nil {
		// Interrupted probes say nothing about the installation.
		c.logger.Debug("epsonscan2 probe interrupted", logging.Error(ctx.Err()))
		return false
	}
	if !res.Launched() {
		c.logger.Error("epsonscan2 launch failed",
			logging.String("binary", c.binary),
			logging.Error(res.LaunchErr),
			logging.String(logging.FieldErrorHint, "install epsonscan2 or set epsonscan.binary"),
		)
		c.install.CompareAndSwap(installUnknown, installUnavailable)
		return false
	}

	installed := IsInstalledExitCode(res.ExitCode)
	state := installUnavailable
	if installed {
		state = installAvailable
	}
	c.install.CompareAndSwap(installUnknown, state)
	c.logger.Debug("epsonscan2 installation detected",
		logging.Bool("installed", installed),
		logging.Int("exit_code", res.ExitCode),
		logging.String("exit_meaning", codeLabel(res.ExitCode)),
	)
	return c.install.Load() == installAvailable
}

// Scanners lists the devices epsonscan2 can see. It returns ErrNotInstalled
// without running anything when the installation probe fails.
func (c *Client) Scanners(ctx context.Context) ([]Scanner, error) {
	if !c.Installed(ctx) {
		return nil, ErrNotInstalled
	}

	args := []string{"-l"}
	res := c.exec.Run(ctx, c.binary, args, c.lineLogger(ctx, "list"))
	if err := commandFailure(args, res); err != nil {
		return nil, err
	}

	scanners, err := ParseDeviceList(res.Stdout)
	if err != nil {
		return nil, err
	}
	for _, scanner := range scanners {
		c.logger.Debug("parsed scanner", logging.String("scanner_id", scanner.ID), logging.String("model", scanner.Model))
	}
	return scanners, nil
}

// commandFailure reports launch errors, process errors, any stderr output
// (whitespace included) and empty stdout as a *CommandError.
func commandFailure(args []string, res ProcessResult) error {
	if !res.Launched() {
		return &CommandError{Args: args, ExitCode: -1, Err: res.LaunchErr}
	}
	if res.Err != nil || res.Stderr != "" || res.Stdout == "" {
		stderr := strings.TrimSpace(res.Stderr)
		if stderr == "" && res.Stderr != "" {
			stderr = strconv.Quote(res.Stderr)
		}
		return &CommandError{Args: args, ExitCode: res.ExitCode, Stderr: stderr, Err: res.Err}
	}
	return nil
}

// lineLogger forwards live child output at debug level.
func (c *Client) lineLogger(ctx context.Context, op string) func(Stream, string) {
	return func(stream Stream, line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		c.logger.DebugContext(ctx, line, logging.String("op", op), logging.String("stream", stream.String()))
	}
}
