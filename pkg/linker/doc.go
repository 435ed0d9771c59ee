// Package linker materializes a resolved dependency tree on disk:
// hardlinking package content from the content store into each
// occurrence's target directory, then symlinking children, peers,
// roots and bin scripts into place. Work runs in strictly ordered
// phases, each internally parallel under a bounded limit, and is
// idempotent: a target whose manifest is already the same physical
// file as the store copy is skipped.
package linker
