// Package logging assembles structured slog loggers and the live event feed
// used across scankiosk components.
//
// It owns the configurable console/JSON handlers and centralizes level and
// output plumbing. Components receive a *slog.Logger; when the logger is built
// with an EventBus every enabled record is also published as a LogEvent, so
// the same call that writes a console line reaches the kiosk page.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
