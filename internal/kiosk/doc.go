// Package kiosk is the scan request boundary used by the HTTP server and CLI.
//
// An Orchestrator takes the raw scanner id and profile name a user picked,
// resolves both, and drives epsonscan2. Every request is tagged with a
// correlation id so its log events can be followed on the live feed.
package kiosk
