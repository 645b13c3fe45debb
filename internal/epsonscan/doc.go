// Package epsonscan mediates access to the epsonscan2 CLI.
//
// It probes whether the utility is installed, parses the `-l` device listing
// into Scanner records, and runs scans with `-s`, collapsing the vendor's
// native exit codes into a small Result. Child output is streamed to the
// logger at debug level as it arrives.
//
// All process execution goes through an Executor so tests can stand in for
// the vendor tool without hardware.
package epsonscan
