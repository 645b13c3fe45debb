// Package deps checks that the external programs scankiosk shells out to can
// be found on PATH.
package deps
