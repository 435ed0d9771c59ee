package types

import (
	"encoding/json"
	"fmt"
)

// Manifest is the subset of package.json modlink cares about.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
	BundledDeps      BundledDeps       `json:"bundledDependencies,omitempty"`
	Bin              BinMap            `json:"bin,omitempty"`
}

// UnmarshalJSON accepts both the "bundledDependencies" and the legacy
// "bundleDependencies" spelling, with the long form winning when both
// are present.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type manifest Manifest
	aux := struct {
		*manifest
		BundleDeps BundledDeps `json:"bundleDependencies,omitempty"`
	}{manifest: (*manifest)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.BundledDeps.IsZero() {
		m.BundledDeps = aux.BundleDeps
	}
	return nil
}

// BundledDeps models npm's bundledDependencies field: either a list of
// dependency names or the boolean true meaning "all dependencies".
type BundledDeps struct {
	Names []string
	All   bool
}

// IsZero reports whether no bundled dependencies are declared.
func (b BundledDeps) IsZero() bool {
	return !b.All && len(b.Names) == 0
}

func (b *BundledDeps) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		b.Names = names
		return nil
	}
	var all bool
	if err := json.Unmarshal(data, &all); err == nil {
		b.All = all
		return nil
	}
	return fmt.Errorf("bundledDependencies: expected array or boolean, got %s", data)
}

func (b BundledDeps) MarshalJSON() ([]byte, error) {
	if b.All {
		return json.Marshal(true)
	}
	return json.Marshal(b.Names)
}

// BinMap models package.json's bin field: either a single path string
// (the executable takes the package name) or a map of command name to
// path.
type BinMap map[string]string

// NormalizeBin resolves the string form against the package name.
// json.Unmarshal alone cannot do this because the owning package's
// name lives outside the field, so Manifest callers use NormalizeBin
// after decoding.
func (m *Manifest) NormalizeBin() {
	if path, ok := m.Bin[""]; ok && m.Name != "" {
		delete(m.Bin, "")
		m.Bin[binName(m.Name)] = path
	}
}

func (b *BinMap) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		// Keyed by empty string until NormalizeBin fills in the
		// package name.
		*b = BinMap{"": single}
		return nil
	}
	var many map[string]string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("bin: expected string or object, got %s", data)
	}
	*b = many
	return nil
}

// binName strips a scope prefix: "@scope/tool" exposes the command
// "tool".
func binName(pkgName string) string {
	for i := len(pkgName) - 1; i >= 0; i-- {
		if pkgName[i] == '/' {
			return pkgName[i+1:]
		}
	}
	return pkgName
}

// ParseManifest decodes a package.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.NormalizeBin()
	return &m, nil
}
