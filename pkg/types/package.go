package types

// InstalledPackage is the fetch layer's record for one resolved
// package version: its identity, manifest, content-store location and
// readiness, plus the ids of the packages its dependency ranges
// resolved to. Immutable once handed to the linker.
type InstalledPackage struct {
	// ID is unique per resolved version+source, e.g.
	// "registry.npmjs.org/lodash/4.17.21".
	ID string

	Manifest *Manifest

	// Path is the package's directory inside the content store.
	Path string

	// Fetching resolves once Path is fully populated.
	Fetching *Readiness

	// DependencyIDs lists the installed-package ids this package's
	// dependencies resolved to, in declaration order.
	DependencyIDs []string
}

// Name returns the manifest name, or the id when no manifest is
// attached yet.
func (p *InstalledPackage) Name() string {
	if p.Manifest != nil && p.Manifest.Name != "" {
		return p.Manifest.Name
	}
	return p.ID
}

// Version returns the manifest version.
func (p *InstalledPackage) Version() string {
	if p.Manifest == nil {
		return ""
	}
	return p.Manifest.Version
}
