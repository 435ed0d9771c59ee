// Package tree converts the fetch layer's flat map of installed
// packages into a keypath-addressed dependency tree, cutting direct
// cycles so traversal always terminates.
package tree

import (
	"path/filepath"

	"github.com/arthur-debert/modlink/pkg/errors"
	"github.com/arthur-debert/modlink/pkg/logging"
	"github.com/arthur-debert/modlink/pkg/types"
)

// Build walks the installed-package map from each root id and returns
// the dependency tree: one TreeNode per occurrence, keyed by keypath
// id, plus the root keypath ids in input order.
//
// A dependency id that is absent from the package map is a caller
// data-integrity violation and fails the whole build.
func Build(packages map[string]*types.InstalledPackage, rootIDs []string, baseModules string) (map[string]*types.TreeNode, []string, error) {
	logger := logging.GetLogger("tree")

	nodes := make(map[string]*types.TreeNode)
	rootKeypaths := make([]string, 0, len(rootIDs))

	type frame struct {
		id        string
		ancestors []string
	}

	stack := make([]frame, 0, len(rootIDs))
	// Roots are pushed in reverse so they pop in input order.
	for i := len(rootIDs) - 1; i >= 0; i-- {
		id := rootIDs[i]
		if _, ok := packages[id]; !ok {
			return nil, nil, errors.Newf(errors.ErrMissingDependency,
				"root package %q is not in the package map", id)
		}
		stack = append(stack, frame{id: id})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		keypathID := keypathOf(f.ancestors, f.id)
		if len(f.ancestors) == 0 {
			rootKeypaths = append(rootKeypaths, keypathID)
		}
		if _, done := nodes[keypathID]; done {
			// Happens only when a root id is listed twice.
			continue
		}

		pkg := packages[f.id]
		node := newNode(pkg, keypathID, len(f.ancestors), baseModules)
		nodes[keypathID] = node

		// Each child gets its own ancestor slice; recursions never
		// share a mutable structure.
		childAncestors := make([]string, 0, len(f.ancestors)+1)
		childAncestors = append(childAncestors, f.ancestors...)
		childAncestors = append(childAncestors, f.id)

		var children []frame
		seen := make(map[string]bool, len(pkg.DependencyIDs))
		for _, depID := range pkg.DependencyIDs {
			if seen[depID] {
				continue
			}
			seen[depID] = true
			if _, ok := packages[depID]; !ok {
				return nil, nil, errors.Newf(errors.ErrMissingDependency,
					"package %q depends on %q which is not in the package map", f.id, depID).
					WithDetail("keypath", keypathID)
			}
			if hasAdjacentPair(childAncestors, f.id, depID) {
				logger.Debug().
					Str("pkg", f.id).
					Str("dependency", depID).
					Str("keypath", keypathID).
					Msg("cycle cut")
				continue
			}
			node.ChildKeypathIDs = append(node.ChildKeypathIDs, types.JoinKeypath(keypathID, depID))
			children = append(children, frame{id: depID, ancestors: childAncestors})
		}

		// Reverse push keeps sibling visit order equal to declaration
		// order, which keeps the walk deterministic.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return nodes, rootKeypaths, nil
}

func newNode(pkg *types.InstalledPackage, keypathID string, depth int, baseModules string) *types.TreeNode {
	node := &types.TreeNode{
		KeypathID: keypathID,
		ID:        pkg.ID,
		Name:      pkg.Name(),
		Version:   pkg.Version(),
		Fetching:  pkg.Fetching,
		StorePath: pkg.Path,
		LocalBase: filepath.Join(baseModules, "."+types.EscapeID(pkg.ID)),
		Depth:     depth,
	}
	if pkg.Manifest != nil {
		if len(pkg.Manifest.PeerDependencies) > 0 {
			node.PeerDependencies = make(map[string]string, len(pkg.Manifest.PeerDependencies))
			for name, rng := range pkg.Manifest.PeerDependencies {
				node.PeerDependencies[name] = rng
			}
		}
		node.HasBundledDeps = !pkg.Manifest.BundledDeps.IsZero()
	}
	return node
}

// keypathOf joins the ancestor ids and the node's own id into the
// occurrence's keypath id.
func keypathOf(ancestors []string, id string) string {
	keypath := ""
	for _, ancestor := range ancestors {
		keypath = types.JoinKeypath(keypath, ancestor)
	}
	return types.JoinKeypath(keypath, id)
}

// hasAdjacentPair reports whether the ancestor/child pair (current,
// child) already occurs as an adjacent pair in the keypath, in either
// orientation. A hit means descending into child would repeat an edge
// already on this descent path, i.e. a cycle; the same package
// re-occurring via an unrelated pair is not a hit.
func hasAdjacentPair(keypath []string, current, child string) bool {
	for i := 0; i+1 < len(keypath); i++ {
		a, b := keypath[i], keypath[i+1]
		if (a == current && b == child) || (a == child && b == current) {
			return true
		}
	}
	return false
}
