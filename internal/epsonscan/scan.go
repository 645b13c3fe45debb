package epsonscan

import (
	"context"
	"fmt"
	"strings"

	"scankiosk/internal/logging"
	"scankiosk/internal/profiles"
)

// Result is the closed outcome of a scan attempt.
type Result int

const (
	ResultOK Result = iota
	ResultNotInstalled
	ResultFailure
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNotInstalled:
		return "not_installed"
	default:
		return "failure"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	switch strings.TrimSpace(string(text)) {
	case "ok":
		*r = ResultOK
	case "not_installed":
		*r = ResultNotInstalled
	case "failure":
		*r = ResultFailure
	default:
		return fmt.Errorf("unknown scan result %q", text)
	}
	return nil
}

// Scan runs `epsonscan2 -s <id> <profile>` and waits for it to finish. When
// epsonscan2 is not installed nothing is run. Every outcome other than a clean
// exit with stdout and no stderr is ResultFailure.
func (c *Client) Scan(ctx context.Context, scanner Scanner, profile profiles.Profile) Result {
	c.logger.InfoContext(ctx, "scan request received",
		logging.String("scanner_id", scanner.ID),
		logging.String("profile", profile.Path),
	)
	if !c.Installed(ctx) {
		return ResultNotInstalled
	}

	args := []string{"-s", scanner.ID, profile.Path}
	res := c.exec.Run(ctx, c.binary, args, c.lineLogger(ctx, "scan"))

	if stdout := strings.TrimSpace(res.Stdout); stdout != "" {
		c.logger.InfoContext(ctx, stdout)
	}

	if err := commandFailure(args, res); err != nil {
		attrs := []logging.Attr{
			logging.String("scanner_id", scanner.ID),
			logging.Int("exit_code", res.ExitCode),
			logging.String(logging.FieldImpact, "no document was scanned"),
		}
		if res.Launched() && res.ExitCode > 0 {
			attrs = append(attrs, logging.String("exit_meaning", codeLabel(res.ExitCode)))
		}
		c.logger.ErrorContext(ctx, failureMessage(res), logging.Args(attrs...)...)
		return ResultFailure
	}
	return ResultOK
}

func failureMessage(res ProcessResult) string {
	switch {
	case res.LaunchErr != nil:
		return res.LaunchErr.Error()
	case res.Err != nil:
		return res.Err.Error()
	case strings.TrimSpace(res.Stderr) != "":
		return strings.TrimSpace(res.Stderr)
	case res.Stderr != "":
		return "blank stderr output"
	default:
		return "no output received"
	}
}
