package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/modlink/pkg/types"
)

// assignLayout derives the occurrence's on-disk directories from its
// resolved peers. Identical peer sets collapse to the same shadow
// folder anywhere in the tree because the name is a sorted function
// of the peers' name@version pairs.
func assignLayout(node *types.TreeNode, peers []*types.TreeNode) *types.ResolvedNode {
	r := &types.ResolvedNode{
		TreeNode: node,
		Modules:  filepath.Join(node.LocalBase, "node_modules"),
	}

	if len(peers) > 0 {
		r.PeerModules = filepath.Join(node.LocalBase, PeersFolderName(peers), "node_modules")
		r.ResolvedPeerIDs = make([]string, len(peers))
		for i, peer := range peers {
			r.ResolvedPeerIDs[i] = peer.KeypathID
		}
	}

	r.HardlinkedLocation = filepath.Join(r.ModulesDir(), node.Name)
	return r
}

// PeersFolderName computes the shadow directory name for a resolved
// peer set: each peer's name@version with "/" replaced by "!", tokens
// sorted lexicographically and joined with "+".
func PeersFolderName(peers []*types.TreeNode) string {
	tokens := make([]string, len(peers))
	for i, peer := range peers {
		tokens[i] = strings.ReplaceAll(peer.Name, "/", "!") + "@" + peer.Version
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "+")
}
