package hotplug

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"scankiosk/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Hotplug.Enabled = true
	cfg.Hotplug.VendorID = "04b8"
	return &cfg
}

func usbEvent(action netlink.KObjAction, vendor string) netlink.UEvent {
	return netlink.UEvent{
		Action: action,
		KObj:   "/devices/pci0000:00/0000:00:14.0/usb1/1-2",
		Env: map[string]string{
			"SUBSYSTEM":       "usb",
			"DEVTYPE":         "usb_device",
			"DEVPATH":         "/devices/pci0000:00/0000:00:14.0/usb1/1-2",
			"ID_VENDOR_ID":    vendor,
			"ID_MODEL_ID":     "013a",
			"ID_MODEL":        "DS-310",
			"ID_SERIAL_SHORT": "X2AB001",
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		if m := New(nil, nil, nil); m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("disabled returns nil", func(t *testing.T) {
		cfg := testConfig()
		cfg.Hotplug.Enabled = false
		if m := New(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor when disabled")
		}
	})

	t.Run("vendor id is normalized", func(t *testing.T) {
		cfg := testConfig()
		cfg.Hotplug.VendorID = " 04B8 "
		m := New(cfg, nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.vendorID != "04b8" {
			t.Errorf("expected vendor 04b8, got %s", m.vendorID)
		}
	})
}

func TestMonitorNilSafety(t *testing.T) {
	var m *Monitor
	if m.Running() {
		t.Error("expected Running() to return false for nil monitor")
	}
	m.Stop()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor should return nil, got: %v", err)
	}
}

func TestStopOnUnstartedMonitor(t *testing.T) {
	m := New(testConfig(), nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("expected Running() to return false after Stop on unstarted monitor")
	}
}

func TestBuildMatcher(t *testing.T) {
	matcher := New(testConfig(), nil, nil).buildMatcher()

	if !matcher.Evaluate(usbEvent(netlink.ADD, "04b8")) {
		t.Error("expected matcher to accept Epson add event")
	}
	if !matcher.Evaluate(usbEvent(netlink.REMOVE, "04b8")) {
		t.Error("expected matcher to accept Epson remove event")
	}
	if matcher.Evaluate(usbEvent(netlink.ADD, "046d")) {
		t.Error("expected matcher to reject other vendors")
	}
	if matcher.Evaluate(usbEvent(netlink.CHANGE, "04b8")) {
		t.Error("expected matcher to reject change events")
	}

	iface := usbEvent(netlink.ADD, "04b8")
	iface.Env["DEVTYPE"] = "usb_interface"
	if matcher.Evaluate(iface) {
		t.Error("expected matcher to reject usb interfaces")
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("reports attach and detach", func(t *testing.T) {
		var got []Event
		m := New(testConfig(), nil, func(_ context.Context, e Event) { got = append(got, e) })

		m.handleEvent(context.Background(), usbEvent(netlink.ADD, "04B8"))
		m.handleEvent(context.Background(), usbEvent(netlink.REMOVE, "04b8"))

		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if got[0].Action != ActionAttached || got[1].Action != ActionDetached {
			t.Errorf("unexpected actions %q %q", got[0].Action, got[1].Action)
		}
		if got[0].Label() != "DS-310" || got[0].ProductID != "013a" || got[0].Serial != "X2AB001" {
			t.Errorf("unexpected event %+v", got[0])
		}
	})

	t.Run("ignores other vendors", func(t *testing.T) {
		called := false
		m := New(testConfig(), nil, func(context.Context, Event) { called = true })
		m.handleEvent(context.Background(), usbEvent(netlink.ADD, "046d"))
		if called {
			t.Error("handler should not be called for another vendor")
		}
	})

	t.Run("ignores events without vendor", func(t *testing.T) {
		called := false
		m := New(testConfig(), nil, func(context.Context, Event) { called = true })
		m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})
		if called {
			t.Error("handler should not be called without a vendor id")
		}
	})
}

func TestEventLabelFallsBackToIDs(t *testing.T) {
	e := Event{VendorID: "04b8", ProductID: "013a"}
	if e.Label() != "04b8:013a" {
		t.Errorf("unexpected label %q", e.Label())
	}
	e.Model = "Perfection_V39"
	if e.Label() != "Perfection V39" {
		t.Errorf("unexpected label %q", e.Label())
	}
}
