package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modlink/pkg/types"
)

// MustWriteFile writes a file, creating parent directories.
func MustWriteFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

// ManifestJSON renders a minimal package.json document.
func ManifestJSON(t *testing.T, m *types.Manifest) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return string(data)
}

// WriteStorePackage lays out a package's content-store directory:
// its manifest plus any extra files, and returns the package dir.
func WriteStorePackage(t *testing.T, fs types.FS, storeDir, id string, m *types.Manifest, files map[string]string) string {
	t.Helper()
	pkgDir := filepath.Join(storeDir, types.EscapeID(id), "package")
	MustWriteFile(t, fs, filepath.Join(pkgDir, "package.json"), ManifestJSON(t, m))
	for rel, content := range files {
		MustWriteFile(t, fs, filepath.Join(pkgDir, rel), content)
	}
	return pkgDir
}

// Installed builds an InstalledPackage whose content is already in
// place.
func Installed(id string, m *types.Manifest, path string, depIDs ...string) *types.InstalledPackage {
	return &types.InstalledPackage{
		ID:            id,
		Manifest:      m,
		Path:          path,
		Fetching:      types.ReadyNow(false),
		DependencyIDs: depIDs,
	}
}
