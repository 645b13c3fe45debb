package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"scankiosk/internal/epsonscan"
	"scankiosk/internal/logging"
	"scankiosk/internal/profiles"
)

// Scanning is the epsonscan2 surface the orchestrator drives.
type Scanning interface {
	Scanners(ctx context.Context) ([]epsonscan.Scanner, error)
	Scan(ctx context.Context, scanner epsonscan.Scanner, profile profiles.Profile) epsonscan.Result
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithSingleFlight rejects scan requests while another one is running.
func WithSingleFlight(enabled bool) Option {
	return func(o *Orchestrator) {
		o.singleFlight = enabled
	}
}

// WithIDGenerator overrides the correlation id source (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Orchestrator turns raw scan requests into epsonscan2 invocations.
type Orchestrator struct {
	scanner      Scanning
	logger       *slog.Logger
	singleFlight bool
	busy         atomic.Bool
	newID        func() string
}

// NewOrchestrator constructs an orchestrator around the scanning client.
func NewOrchestrator(scanner Scanning, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scanner: scanner,
		logger:  logging.NewComponentLogger(logger, "kiosk"),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a scan is in flight. It is only tracked when single
// flight is enabled.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// RequestScan resolves the requested profile and scanner and runs the scan.
// Failures never escape as errors or panics; they are logged and reported as
// ResultFailure. An unknown scanner id is never passed to the driver.
func (o *Orchestrator) RequestScan(ctx context.Context, scannerID, profileName, profileDir, defaultProfile string) (result epsonscan.Result) {
	logger := o.logger.With(logging.String(logging.FieldCorrelationID, o.newID()))

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "scan request aborted", logging.Any("panic", r))
			result = epsonscan.ResultFailure
		}
	}()

	if o.singleFlight {
		if !o.busy.CompareAndSwap(false, true) {
			logger.WarnContext(ctx, "scan already in progress; request rejected",
				logging.String("scanner_id", scannerID),
			)
			return epsonscan.ResultFailure
		}
		defer o.busy.Store(false)
	}

	logger.InfoContext(ctx, "scan requested",
		logging.String("scanner_id", scannerID),
		logging.String("profile", profileName),
	)

	profile := profiles.Resolve(profileDir, profileName, defaultProfile)
	if profileName != "" && profile.Name != profileName {
		logger.WarnContext(ctx, "profile not found; using default",
			logging.String("requested", profileName),
			logging.String("profile", profile.Path),
		)
	} else {
		logger.DebugContext(ctx, "profile resolved", logging.String("profile", profile.Path))
	}

	scanner, err := o.findScanner(ctx, scannerID)
	if err != nil {
		logger.ErrorContext(ctx, err.Error(), logging.String("scanner_id", scannerID))
		return epsonscan.ResultFailure
	}
	logger.DebugContext(ctx, "scanner resolved",
		logging.String("scanner_id", scanner.ID),
		logging.String("model", scanner.Model),
	)

	result = o.scanner.Scan(ctx, scanner, profile)
	logFn := logger.InfoContext
	if result != epsonscan.ResultOK {
		logFn = logger.ErrorContext
	}
	logFn(ctx, "scan finished", logging.String("result", result.String()))
	return result
}

func (o *Orchestrator) findScanner(ctx context.Context, scannerID string) (epsonscan.Scanner, error) {
	available, err := o.scanner.Scanners(ctx)
	if err != nil {
		if errors.Is(err, epsonscan.ErrNotInstalled) {
			return epsonscan.Scanner{}, fmt.Errorf("scanner %q not found: %w", scannerID, err)
		}
		return epsonscan.Scanner{}, fmt.Errorf("list scanners: %w", err)
	}
	for _, candidate := range available {
		if candidate.ID == scannerID {
			return candidate, nil
		}
	}
	return epsonscan.Scanner{}, fmt.Errorf("scanner %q not found", scannerID)
}
