// Package preflight provides readiness checks for the filesystem paths and
// annotation store that vgrid depends on.
//
// The CLI "vgrid config check" command runs RunAll and reports each result.
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
