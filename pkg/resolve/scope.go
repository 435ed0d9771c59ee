package resolve

import (
	"github.com/arthur-debert/modlink/pkg/types"
)

// Scope is the candidate pool for peer resolution at one point in the
// tree: package name to the nearest occurrence carrying that name.
type Scope map[string]*types.TreeNode

// Overlay merges scope layers into a fresh map, later layers taking
// precedence. Resolution uses the order ancestors < self < children,
// so a node or its own children can shadow a same-named package
// further up the tree. Within one layer, later entries win, matching
// dependency declaration order.
func Overlay(layers ...Scope) Scope {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(Scope, size)
	for _, layer := range layers {
		for name, node := range layer {
			merged[name] = node
		}
	}
	return merged
}
