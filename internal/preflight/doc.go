// Package preflight validates the environment before a scan starts:
// scan-root readability, output-directory writability, and available
// disk space.
package preflight
