// Package resolve walks the dependency tree computing, per
// occurrence, the peer dependencies satisfied by packages already in
// scope, and derives the directory layout each occurrence must occupy
// on disk.
package resolve

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/arthur-debert/modlink/pkg/logging"
	"github.com/arthur-debert/modlink/pkg/types"
)

// WarningKind classifies a non-fatal peer resolution problem.
type WarningKind string

const (
	// WarnPeerMissing means no ancestor or sibling carries the peer's
	// name; the peer is omitted from the resolved set.
	WarnPeerMissing WarningKind = "peer-missing"
	// WarnPeerMismatch means a package with the peer's name is in
	// scope but its version fails the declared range; it is still
	// linked.
	WarnPeerMismatch WarningKind = "peer-version-mismatch"
)

// Warning describes one peer resolution problem. Warnings never abort
// resolution.
type Warning struct {
	Kind    WarningKind
	Keypath string
	Pkg     string
	Peer    string
	Range   string
	Found   string
}

// Resolve produces one ResolvedNode per tree node, depth-first from
// each root, resolving declared peer dependencies against the
// ancestor/sibling scope and assigning the module, peer-shadow and
// hardlink-target directories. The input tree is not mutated.
func Resolve(tree map[string]*types.TreeNode, rootKeypaths []string) (map[string]*types.ResolvedNode, []Warning, error) {
	logger := logging.GetLogger("resolve")

	resolved := make(map[string]*types.ResolvedNode, len(tree))
	var warnings []Warning

	type frame struct {
		keypathID string
		scope     Scope
	}

	stack := make([]frame, 0, len(rootKeypaths))
	for i := len(rootKeypaths) - 1; i >= 0; i-- {
		stack = append(stack, frame{keypathID: rootKeypaths[i], scope: Scope{}})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := tree[f.keypathID]
		if node == nil || resolved[f.keypathID] != nil {
			continue
		}

		// Children override self, self overrides ancestors. The
		// children layer is built in declaration order so a later
		// sibling shadows an earlier one of the same name.
		children := make(Scope, len(node.ChildKeypathIDs))
		for _, childKeypath := range node.ChildKeypathIDs {
			if child := tree[childKeypath]; child != nil {
				children[child.Name] = child
			}
		}
		scope := Overlay(f.scope, Scope{node.Name: node}, children)

		peers, nodeWarnings := resolvePeers(node, scope)
		warnings = append(warnings, nodeWarnings...)
		for _, w := range nodeWarnings {
			event := logger.Warn().
				Str("pkg", w.Pkg).
				Str("keypath", w.Keypath).
				Str("peer", w.Peer).
				Str("range", w.Range)
			if w.Kind == WarnPeerMissing {
				event.Msg("no package in scope satisfies peer dependency")
			} else {
				event.Str("found", w.Found).Msg("peer version does not satisfy declared range, linking anyway")
			}
		}

		resolved[f.keypathID] = assignLayout(node, peers)

		for i := len(node.ChildKeypathIDs) - 1; i >= 0; i-- {
			stack = append(stack, frame{keypathID: node.ChildKeypathIDs[i], scope: scope})
		}
	}

	return resolved, warnings, nil
}

// resolvePeers looks each declared peer up in the scope. Missing
// peers are dropped with a warning; version mismatches warn but still
// resolve, so a best-effort link is made rather than none.
func resolvePeers(node *types.TreeNode, scope Scope) ([]*types.TreeNode, []Warning) {
	if len(node.PeerDependencies) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(node.PeerDependencies))
	for name := range node.PeerDependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var peers []*types.TreeNode
	var warnings []Warning
	for _, name := range names {
		rng := node.PeerDependencies[name]
		found, ok := scope[name]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:    WarnPeerMissing,
				Keypath: node.KeypathID,
				Pkg:     node.Name,
				Peer:    name,
				Range:   rng,
			})
			continue
		}
		if !satisfies(found.Version, rng) {
			warnings = append(warnings, Warning{
				Kind:    WarnPeerMismatch,
				Keypath: node.KeypathID,
				Pkg:     node.Name,
				Peer:    name,
				Range:   rng,
				Found:   found.Version,
			})
		}
		peers = append(peers, found)
	}
	return peers, warnings
}

// satisfies reports whether version matches the npm-style range. An
// unparseable range or version counts as a mismatch, never a failure.
func satisfies(version, rng string) bool {
	if rng == "" || rng == "*" {
		return true
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.Check(v)
}
