// Package hotplug watches udev for USB scanners being plugged in or removed
// and reports them as log events, so the kiosk page learns about new devices
// without polling epsonscan2.
package hotplug
