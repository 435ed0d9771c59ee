package types

import (
	"path/filepath"
	"strings"
)

// KeypathSeparator joins package ids into a keypath id.
const KeypathSeparator = "/"

// JoinKeypath appends a package id to a parent keypath, forming the
// child occurrence's keypath id.
func JoinKeypath(parentKeypath, id string) string {
	if parentKeypath == "" {
		return id
	}
	return parentKeypath + KeypathSeparator + id
}

// EscapeID makes a package id safe to use as a single directory name
// by replacing path separators, mirroring the "!" substitution used in
// peer-shadow folder names.
func EscapeID(id string) string {
	return strings.ReplaceAll(id, "/", "!")
}

// TreeNode is one occurrence of a package in the dependency tree,
// identified by its keypath rather than its package id alone: the
// same package can appear at several keypaths with different peer
// contexts.
type TreeNode struct {
	KeypathID string
	ID        string
	Name      string
	Version   string

	// PeerDependencies maps peer name to its declared version range.
	PeerDependencies map[string]string
	HasBundledDeps   bool

	Fetching  *Readiness
	StorePath string

	// LocalBase is the occurrence's private directory under the
	// project's node_modules, named after the package id.
	LocalBase string

	// ChildKeypathIDs lists children in dependency declaration order.
	ChildKeypathIDs []string

	// Depth from the root; root dependencies are depth 0.
	Depth int
}

// ResolvedNode is a TreeNode annotated with its peer resolution and
// on-disk layout. TreeNodes are never mutated in place; resolution
// produces a fresh record per keypath.
type ResolvedNode struct {
	*TreeNode

	// Modules is the plain module directory, LocalBase/node_modules.
	Modules string

	// PeerModules is the peer-shadow module directory. Empty when the
	// node resolved no peers.
	PeerModules string

	// HardlinkedLocation is the single physical directory this
	// occurrence's files are linked into.
	HardlinkedLocation string

	// ResolvedPeerIDs are the keypath ids of the peers found in
	// scope.
	ResolvedPeerIDs []string
}

// ModulesDir returns the directory this node's children and peers are
// linked into: the peer-shadow directory when present, the plain one
// otherwise.
func (n *ResolvedNode) ModulesDir() string {
	if n.PeerModules != "" {
		return n.PeerModules
	}
	return n.Modules
}

// OwnModules returns <HardlinkedLocation>/node_modules, the directory
// bin scripts are gathered beneath.
func (n *ResolvedNode) OwnModules() string {
	return filepath.Join(n.HardlinkedLocation, "node_modules")
}
