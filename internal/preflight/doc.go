// Package preflight provides readiness checks for the filesystem paths and
// external programs scankiosk depends on.
//
// These checks run in two contexts:
//   - `scankiosk serve` runs RunAll at startup and logs every failure as a
//     warning; the kiosk still starts so the page can show the problem.
//   - The CLI "scankiosk status" command renders the same results as a table.
package preflight
