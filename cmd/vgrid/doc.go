// Package main hosts the vgrid CLI entrypoint and command graph.
//
// The Cobra-based command tree compiles interval manifests into encoded
// payloads, summarizes them, and manages the annotation store and payload
// cache. It centralizes configuration resolution and logging setup so
// subcommands can focus on output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
