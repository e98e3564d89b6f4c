// Package organize plans and performs the placement of recovered files.
//
// The Planner mirrors each match's path relative to the scan root under a
// classification-specific subdirectory of the output root; the Copier streams
// content with permission and modification-time preservation and isolates
// per-file failures. Destinations are collision-free by construction, so
// copiers may run concurrently without coordination beyond idempotent
// directory creation.
package organize
