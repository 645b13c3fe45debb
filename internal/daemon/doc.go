// Package daemon runs the long-lived kiosk process.
//
// It holds the flock-based single-instance lock, seeds the default settings
// profile, logs preflight results, and serves the kiosk page, the JSON API and
// the WebSocket live feed over a chi router. Scan requests are handed to a
// ScanRequester; the daemon itself never talks to epsonscan2 beyond discovery.
//
// The live feed subscribes each WebSocket connection to the logging
// EventBus with a bounded queue, so a slow browser drops events instead of
// stalling the logger.
package daemon
