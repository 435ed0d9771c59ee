package linker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/modlink/pkg/types"
)

// linkNodeBins gathers the executables a node's occurrence can reach
// into <hardlinkedLocation>/node_modules/.bin: bins of packages in
// its own module directory, in its peer-shadow directory when one
// exists, and, for packages shipping bundled dependencies, bins found
// directly under its own node_modules.
func (l *Linker) linkNodeBins(node *types.ResolvedNode) error {
	binDir := filepath.Join(node.OwnModules(), ".bin")

	if err := l.linkBinsOfModules(node.Modules, binDir); err != nil {
		return err
	}
	if node.PeerModules != "" {
		if err := l.linkBinsOfModules(node.PeerModules, binDir); err != nil {
			return err
		}
	}
	if node.HasBundledDeps {
		if err := l.linkBinsOfModules(node.OwnModules(), binDir); err != nil {
			return err
		}
	}
	return nil
}

// linkBinsOfModules scans a node_modules-style directory for packages
// declaring bin entries and symlinks each into binDir. A missing
// modules directory is fine: the node simply has nothing there yet.
func (l *Linker) linkBinsOfModules(modulesDir, binDir string) error {
	entries, err := l.fs.ReadDir(modulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, "@") {
			// Scope directory, packages are one level down.
			scopeDir := filepath.Join(modulesDir, name)
			scoped, err := l.fs.ReadDir(scopeDir)
			if err != nil {
				continue
			}
			for _, sub := range scoped {
				if err := l.linkPackageBins(filepath.Join(scopeDir, sub.Name()), binDir); err != nil {
					return err
				}
			}
			continue
		}
		if err := l.linkPackageBins(filepath.Join(modulesDir, name), binDir); err != nil {
			return err
		}
	}
	return nil
}

// linkPackageBins links one package's declared bins into binDir.
// Entries without a parseable manifest are skipped; a dependency's
// broken package.json should not fail the install.
func (l *Linker) linkPackageBins(pkgDir, binDir string) error {
	data, err := l.fs.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return nil
	}
	manifest, err := types.ParseManifest(data)
	if err != nil {
		l.logger.Warn().Str("dir", pkgDir).Err(err).Msg("unparseable manifest, skipping bins")
		return nil
	}
	if len(manifest.Bin) == 0 {
		return nil
	}

	names := make([]string, 0, len(manifest.Bin))
	for name := range manifest.Bin {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := filepath.Join(pkgDir, manifest.Bin[name])
		if err := l.symlink(target, filepath.Join(binDir, name)); err != nil {
			return err
		}
	}
	return nil
}
