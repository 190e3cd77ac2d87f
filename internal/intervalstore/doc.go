// Package intervalstore persists named interval tracks in SQLite so they can
// be imported once and referenced from many manifests.
//
// Each track row owns its intervals; a source key is stored as text plus a
// flag distinguishing integer from string keys, and interval order within a
// key is preserved through an explicit position column. Schema changes ship
// as embedded, versioned SQL migrations applied on Open.
package intervalstore
