// Package payloadcache keeps encoded payloads on disk so repeated compiles of
// an unchanged manifest skip the encoder.
//
// # Storage
//
// Entries live under the configured cache directory (default:
// ~/.cache/vgrid/payloads). Each payload is a file named after its request
// key plus the codec extension, and index.json lists the entries as JSON.
// A sibling .lock file is held with flock while the index is read or
// rewritten, so concurrent vgrid processes never interleave writes.
//
// # Keys
//
// RequestKey hashes the manifest bytes together with the compile settings.
// Every entry also records the sha256 digest of the stored payload, and
// Lookup drops entries whose file no longer matches it.
//
// CLI commands for inspection and management:
//
//	vgrid cache list    # List cached payloads, newest first
//	vgrid cache clear   # Remove every entry
package payloadcache
