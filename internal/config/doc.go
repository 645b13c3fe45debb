// Package config loads, normalizes, and validates scankiosk configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the PORT environment override for
// the HTTP bind address. The Config type centralizes every knob the server and
// CLI need so the profile directory, scanning utility, and log routing are
// discovered in one pass and injected into each component.
package config
