// Package api hosts the workflows behind the vgrid CLI and the
// transport-friendly types they report.
//
// # Workflows
//
// CompileManifest: manifest file -> resolved tracks -> compiled document ->
// encoded (and optionally compressed) payload, consulting the payload cache
// when the manifest does not reference stored tracks.
//
// InspectManifest: the same resolution and compile steps without encoding,
// returning per-track summaries.
//
// ImportTracks: resolves a manifest and writes its tracks into the
// annotation store.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Request structs carry the configuration and logger explicitly so commands
// stay declarative.
package api
