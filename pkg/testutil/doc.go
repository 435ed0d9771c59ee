// Package testutil provides test infrastructure for modlink: an
// in-memory filesystem with hardlink and inode semantics, and fixture
// helpers for building store content and installed-package inputs.
package testutil
