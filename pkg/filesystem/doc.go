// Package filesystem provides filesystem implementations for modlink.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem and an afero-backed one for
// tests that do not need hardlink semantics.
package filesystem
