// Package profiles locates epsonscan2 settings files (.SF2) in the configured
// profile directory and resolves the one a scan request should use.
package profiles
