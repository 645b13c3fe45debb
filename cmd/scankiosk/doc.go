// Command scankiosk serves the scan kiosk and provides operator commands for
// inspecting scanners, settings profiles, and installation health.
package main
