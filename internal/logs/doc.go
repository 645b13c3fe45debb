// Package logs reads the kiosk log file for `scankiosk logs`.
//
// Last returns the final lines of the file with bounded memory, and Follow
// polls for appended lines until its context ends. Only complete lines are
// emitted; a partially written line waits for its newline.
package logs
