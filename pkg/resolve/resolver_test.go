package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modlink/pkg/resolve"
	"github.com/arthur-debert/modlink/pkg/testutil"
	"github.com/arthur-debert/modlink/pkg/tree"
	"github.com/arthur-debert/modlink/pkg/types"
)

const baseModules = "/project/node_modules"

func installed(id, name, version string, peers map[string]string, deps ...string) *types.InstalledPackage {
	return testutil.Installed(id, &types.Manifest{
		Name:             name,
		Version:          version,
		PeerDependencies: peers,
	}, "/store/"+types.EscapeID(id)+"/package", deps...)
}

func mustResolve(t *testing.T, packages map[string]*types.InstalledPackage, roots []string) (map[string]*types.ResolvedNode, []resolve.Warning) {
	t.Helper()
	nodes, rootKeypaths, err := tree.Build(packages, roots, baseModules)
	require.NoError(t, err)
	resolved, warnings, err := resolve.Resolve(nodes, rootKeypaths)
	require.NoError(t, err)
	require.Len(t, resolved, len(nodes))
	return resolved, warnings
}

func TestResolve_PeerFromAncestorScope(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"app":    installed("app", "app", "1.0.0", nil, "host", "plugin"),
		"host":   installed("host", "host", "1.2.0", nil),
		"plugin": installed("plugin", "plugin", "3.0.0", map[string]string{"host": "^1.0.0"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"app"})
	assert.Empty(t, warnings)

	plugin := resolved["app/plugin"]
	require.NotNil(t, plugin)
	assert.Equal(t, []string{"app/host"}, plugin.ResolvedPeerIDs)
	assert.Equal(t, "/project/node_modules/.plugin/host@1.2.0/node_modules", plugin.PeerModules)
	assert.Equal(t, "/project/node_modules/.plugin/host@1.2.0/node_modules/plugin", plugin.HardlinkedLocation)
}

func TestResolve_MissingPeerWarnsAndOmits(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"plugin": installed("plugin", "plugin", "3.0.0", map[string]string{"host": "^1.0.0"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"plugin"})

	require.Len(t, warnings, 1)
	assert.Equal(t, resolve.WarnPeerMissing, warnings[0].Kind)
	assert.Equal(t, "plugin", warnings[0].Pkg)
	assert.Equal(t, "host", warnings[0].Peer)
	assert.Equal(t, "^1.0.0", warnings[0].Range)

	plugin := resolved["plugin"]
	assert.Empty(t, plugin.ResolvedPeerIDs)
	assert.Empty(t, plugin.PeerModules)
	assert.Equal(t, "/project/node_modules/.plugin/node_modules/plugin", plugin.HardlinkedLocation)
}

func TestResolve_VersionMismatchStillLinks(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"app":    installed("app", "app", "1.0.0", nil, "host", "plugin"),
		"host":   installed("host", "host", "2.0.0", nil),
		"plugin": installed("plugin", "plugin", "3.0.0", map[string]string{"host": "^1.0.0"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"app"})

	// Exactly one warning, and the peer is still resolved.
	require.Len(t, warnings, 1)
	assert.Equal(t, resolve.WarnPeerMismatch, warnings[0].Kind)
	assert.Equal(t, "2.0.0", warnings[0].Found)

	plugin := resolved["app/plugin"]
	assert.Equal(t, []string{"app/host"}, plugin.ResolvedPeerIDs)
	assert.Equal(t, "/project/node_modules/.plugin/host@2.0.0/node_modules", plugin.PeerModules)
}

func TestResolve_NearerScopeShadowsFarther(t *testing.T) {
	// Three levels: the root carries lib@1, mid carries its own
	// lib@2 sibling next to leaf. leaf's peer request for lib must
	// see the nearer lib@2.
	packages := map[string]*types.InstalledPackage{
		"top":  installed("top", "top", "1.0.0", nil, "lib1", "mid"),
		"lib1": installed("lib1", "lib", "1.0.0", nil),
		"mid":  installed("mid", "mid", "1.0.0", nil, "lib2", "leaf"),
		"lib2": installed("lib2", "lib", "2.0.0", nil),
		"leaf": installed("leaf", "leaf", "1.0.0", map[string]string{"lib": ">=1.0.0"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"top"})
	assert.Empty(t, warnings)

	leaf := resolved["top/mid/leaf"]
	require.NotNil(t, leaf)
	assert.Equal(t, []string{"top/mid/lib2"}, leaf.ResolvedPeerIDs)
	assert.Equal(t, "/project/node_modules/.leaf/lib@2.0.0/node_modules", leaf.PeerModules)
}

func TestResolve_ReoccurrenceResolvedIndependently(t *testing.T) {
	// b needs peer "ctx"; a and c each provide a different version,
	// so b's two occurrences get different peer layouts.
	packages := map[string]*types.InstalledPackage{
		"a":     installed("a", "a", "1.0.0", nil, "ctx1", "b"),
		"c":     installed("c", "c", "1.0.0", nil, "ctx2", "b"),
		"ctx1":  installed("ctx1", "ctx", "1.0.0", nil),
		"ctx2":  installed("ctx2", "ctx", "2.0.0", nil),
		"b":     installed("b", "b", "1.0.0", map[string]string{"ctx": "*"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"a", "c"})
	assert.Empty(t, warnings)

	underA := resolved["a/b"]
	underC := resolved["c/b"]
	require.NotNil(t, underA)
	require.NotNil(t, underC)
	assert.Equal(t, []string{"a/ctx1"}, underA.ResolvedPeerIDs)
	assert.Equal(t, []string{"c/ctx2"}, underC.ResolvedPeerIDs)
	assert.NotEqual(t, underA.HardlinkedLocation, underC.HardlinkedLocation)
}

func TestResolve_IdenticalPeerSetsCollapse(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"a":    installed("a", "a", "1.0.0", nil, "host", "b"),
		"c":    installed("c", "c", "1.0.0", nil, "host", "b"),
		"host": installed("host", "host", "1.0.0", nil),
		"b":    installed("b", "b", "1.0.0", map[string]string{"host": "^1.0.0"}),
	}

	resolved, _ := mustResolve(t, packages, []string{"a", "c"})

	// Same package id, same resolved peer name@version: both
	// occurrences share one physical location.
	assert.Equal(t, resolved["a/b"].HardlinkedLocation, resolved["c/b"].HardlinkedLocation)
}

func TestResolve_OwnChildSatisfiesPeer(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"plugin": installed("plugin", "plugin", "1.0.0", map[string]string{"host": "^1.0.0"}, "host"),
		"host":   installed("host", "host", "1.5.0", nil),
	}

	resolved, warnings := mustResolve(t, packages, []string{"plugin"})
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"plugin/host"}, resolved["plugin"].ResolvedPeerIDs)
}

func TestResolve_UnparseableRangeWarnsButLinks(t *testing.T) {
	packages := map[string]*types.InstalledPackage{
		"app":    installed("app", "app", "1.0.0", nil, "host", "plugin"),
		"host":   installed("host", "host", "1.0.0", nil),
		"plugin": installed("plugin", "plugin", "1.0.0", map[string]string{"host": "not-a-range"}),
	}

	resolved, warnings := mustResolve(t, packages, []string{"app"})

	require.Len(t, warnings, 1)
	assert.Equal(t, resolve.WarnPeerMismatch, warnings[0].Kind)
	assert.Equal(t, []string{"app/host"}, resolved["app/plugin"].ResolvedPeerIDs)
}
