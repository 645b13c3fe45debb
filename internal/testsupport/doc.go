// Package testsupport provides helpers shared by package tests: temp-dir
// configurations, stub binaries on PATH, and placeholder profile files.
package testsupport
