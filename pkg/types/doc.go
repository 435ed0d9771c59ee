// Package types defines the core data model shared across modlink:
// installed packages as produced by the fetch layer, dependency tree
// nodes addressed by keypath, resolved nodes carrying their on-disk
// layout, and the filesystem interface every component operates
// through.
package types
