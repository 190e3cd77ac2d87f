// Package textutil normalizes user-supplied names before they are compared,
// stored in an encoding dictionary, or shown in tables.
package textutil
