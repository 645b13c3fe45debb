package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"scankiosk/internal/config"
	"scankiosk/internal/deps"
	"scankiosk/internal/epsonscan"
	"scankiosk/internal/hotplug"
	"scankiosk/internal/logging"
	"scankiosk/internal/preflight"
	"scankiosk/internal/profiles"
)

// Scanning is the discovery surface the kiosk page needs.
type Scanning interface {
	Installed(ctx context.Context) bool
	Scanners(ctx context.Context) ([]epsonscan.Scanner, error)
}

// ScanRequester starts a scan from raw user input.
type ScanRequester interface {
	RequestScan(ctx context.Context, scannerID, profileName, profileDir, defaultProfile string) epsonscan.Result
}

// Daemon runs the kiosk web server and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	bus       *logging.EventBus
	scanning  Scanning
	requester ScanRequester

	lockPath string
	lock     *flock.Flock

	server  *httpServer
	hotplug *hotplug.Monitor

	mu        sync.Mutex
	lastUSB   *hotplug.Event
	lastUSBAt time.Time

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool          `json:"running"`
	Installed      bool          `json:"installed"`
	Address        string        `json:"address,omitempty"`
	LockFilePath   string        `json:"lock_file"`
	ProfileDir     string        `json:"profile_dir"`
	SingleFlight   bool          `json:"single_flight"`
	Hotplug        bool          `json:"hotplug"`
	LastUSBEvent   string        `json:"last_usb_event,omitempty"`
	LastUSBEventAt *time.Time    `json:"last_usb_event_at,omitempty"`
	Dependencies   []deps.Status `json:"dependencies"`
	LiveClients    int           `json:"live_clients"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, bus *logging.EventBus, scanning Scanning, requester ScanRequester) (*Daemon, error) {
	if cfg == nil || scanning == nil || requester == nil {
		return nil, errors.New("daemon requires config, scanner discovery, and scan requester")
	}
	if bus == nil {
		bus = logging.NewEventBus()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		bus:       bus,
		scanning:  scanning,
		requester: requester,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.server = newHTTPServer(cfg, d, logger)
	d.hotplug = hotplug.New(cfg, logger, d.recordUSBEvent)
	return d, nil
}

// Start acquires the instance lock, prepares the profile directory and
// begins serving the kiosk.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scankiosk instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.seedDefaultProfile()
	d.logPreflight(d.ctx)

	if err := d.server.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start http server: %w", err)
	}
	if err := d.hotplug.Start(d.ctx); err != nil {
		d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("scankiosk started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
	)
	return nil
}

// Stop shuts the server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.hotplug.Stop()
	d.server.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("scankiosk stopped")
}

// Addr returns the address the kiosk listens on, once started.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Installed:    d.scanning.Installed(ctx),
		Address:      d.server.addr(),
		LockFilePath: d.lockPath,
		ProfileDir:   d.cfg.Paths.ProfileDir,
		SingleFlight: d.cfg.Scan.SingleFlight,
		Hotplug:      d.hotplug.Running(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		LiveClients:  d.server.feed.clientCount(),
	}
	d.mu.Lock()
	if d.lastUSB != nil {
		status.LastUSBEvent = d.lastUSB.Label() + " " + string(d.lastUSB.Action)
		at := d.lastUSBAt
		status.LastUSBEventAt = &at
	}
	d.mu.Unlock()
	return status
}

func (d *Daemon) recordUSBEvent(_ context.Context, event hotplug.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := event
	d.lastUSB = &e
	d.lastUSBAt = time.Now().UTC()
}

func (d *Daemon) seedDefaultProfile() {
	copied, err := profiles.SeedDefault(d.cfg.Paths.ProfileDir, d.cfg.Paths.DefaultProfile, d.cfg.Paths.DefaultProfileSource)
	if err != nil {
		d.logger.Warn("default profile seeding failed",
			logging.Error(err),
			logging.String("source", d.cfg.Paths.DefaultProfileSource),
			logging.String(logging.FieldErrorHint, "create one with `epsonscan2 -c` and set paths.default_profile_source"),
		)
		return
	}
	if copied {
		d.logger.Info("default profile installed",
			logging.String("profile", profiles.Join(d.cfg.Paths.ProfileDir, d.cfg.Paths.DefaultProfile)),
		)
	}
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg, d.scanning) {
		if result.Passed {
			d.logger.Debug("preflight passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		d.logger.Warn("preflight failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "scans may fail until this is fixed"),
		)
	}
}
