package hotplug

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"scankiosk/internal/config"
	"scankiosk/internal/logging"
)

// Action is the kind of USB change observed.
type Action string

const (
	ActionAttached Action = "attached"
	ActionDetached Action = "detached"
)

// Event describes a scanner appearing on or leaving the USB bus.
type Event struct {
	Action    Action
	VendorID  string
	ProductID string
	Model     string
	Serial    string
	DevPath   string
}

// Label renders a short human name for the device.
func (e Event) Label() string {
	if e.Model != "" {
		return strings.ReplaceAll(e.Model, "_", " ")
	}
	return fmt.Sprintf("%s:%s", e.VendorID, e.ProductID)
}

// Monitor listens for udev netlink events and reports USB devices of the
// configured vendor being plugged in or removed.
type Monitor struct {
	logger   *slog.Logger
	vendorID string
	handler  func(ctx context.Context, event Event)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New creates a monitor, or returns nil when hotplug detection is disabled.
func New(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context, event Event)) *Monitor {
	if cfg == nil || !cfg.Hotplug.Enabled {
		return nil
	}
	vendor := strings.ToLower(strings.TrimSpace(cfg.Hotplug.VendorID))
	if vendor == "" {
		return nil
	}
	return &Monitor{
		logger:   logging.NewComponentLogger(logger, "hotplug"),
		vendorID: vendor,
		handler:  handler,
	}
}

// Start begins listening for udev netlink events. Failure to open the
// netlink socket is logged and otherwise ignored.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; scanner hotplug events disabled",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the process may open NETLINK_KOBJECT_UEVENT sockets"),
			logging.String(logging.FieldImpact, "reload the page after plugging in a scanner"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("vendor_id", m.vendorID),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "hotplug_monitor_error"),
				logging.String(logging.FieldImpact, "scanner hotplug events may be missed"),
			)
		}
	}
}

// buildMatcher matches whole USB devices of the configured vendor being
// added or removed.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "^(add|remove)$"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":    "^usb$",
			"DEVTYPE":      "^usb_device$",
			"ID_VENDOR_ID": "^" + m.vendorID + "$",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	event, ok := eventFromUEvent(uevent)
	if !ok {
		m.logger.Debug("ignoring uevent",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if event.VendorID != m.vendorID {
		return
	}

	m.logger.Info("scanner "+string(event.Action),
		logging.String(logging.FieldEventType, "scanner_"+string(event.Action)),
		logging.String("device", event.Label()),
		logging.String("vendor_id", event.VendorID),
		logging.String("product_id", event.ProductID),
	)

	if m.handler != nil {
		m.handler(ctx, event)
	}
}

func eventFromUEvent(uevent netlink.UEvent) (Event, bool) {
	var action Action
	switch uevent.Action {
	case netlink.ADD:
		action = ActionAttached
	case netlink.REMOVE:
		action = ActionDetached
	default:
		return Event{}, false
	}
	env := uevent.Env
	vendor := strings.ToLower(strings.TrimSpace(env["ID_VENDOR_ID"]))
	if vendor == "" {
		return Event{}, false
	}
	devpath := env["DEVPATH"]
	if devpath == "" {
		devpath = uevent.KObj
	}
	return Event{
		Action:    action,
		VendorID:  vendor,
		ProductID: strings.ToLower(strings.TrimSpace(env["ID_MODEL_ID"])),
		Model:     strings.TrimSpace(env["ID_MODEL"]),
		Serial:    strings.TrimSpace(env["ID_SERIAL_SHORT"]),
		DevPath:   devpath,
	}, true
}
