package store

import (
	"encoding/json"

	"github.com/arthur-debert/modlink/pkg/errors"
	"github.com/arthur-debert/modlink/pkg/types"
)

// Plan is the linker's input at the CLI boundary: the fetch layer's
// installed-package records plus the top-level ids. Plan files are
// what an upstream fetcher writes after populating the store.
type Plan struct {
	Packages map[string]*types.InstalledPackage
	RootIDs  []string
}

type planDocument struct {
	Packages []planPackage `json:"packages"`
	Roots    []string      `json:"roots"`
}

type planPackage struct {
	ID           string          `json:"id"`
	Path         string          `json:"path,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Manifest     *types.Manifest `json:"manifest,omitempty"`
}

// LoadPlan reads and validates a plan file. Packages without an
// inline manifest get theirs read from the store; content readiness
// resolves immediately since plan-described content is already in
// place.
func LoadPlan(fs types.FS, s *Store, path string) (*Plan, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPlanInvalid, "cannot read plan %s", path)
	}

	var doc planDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrPlanInvalid, "cannot parse plan %s", path)
	}
	if len(doc.Roots) == 0 {
		return nil, errors.Newf(errors.ErrPlanInvalid, "plan %s declares no root packages", path)
	}

	plan := &Plan{
		Packages: make(map[string]*types.InstalledPackage, len(doc.Packages)),
		RootIDs:  doc.Roots,
	}

	for _, p := range doc.Packages {
		if p.ID == "" {
			return nil, errors.Newf(errors.ErrPlanInvalid, "plan %s contains a package without an id", path)
		}
		if _, dup := plan.Packages[p.ID]; dup {
			return nil, errors.Newf(errors.ErrPlanInvalid, "plan %s lists %q twice", path, p.ID)
		}

		manifest := p.Manifest
		if manifest == nil {
			manifest, err = s.ReadManifest(p.ID)
			if err != nil {
				return nil, err
			}
		} else {
			manifest.NormalizeBin()
		}

		contentPath := p.Path
		if contentPath == "" {
			contentPath = s.PackageDir(p.ID)
		}

		plan.Packages[p.ID] = &types.InstalledPackage{
			ID:            p.ID,
			Manifest:      manifest,
			Path:          contentPath,
			Fetching:      types.ReadyNow(false),
			DependencyIDs: p.Dependencies,
		}
	}

	for _, root := range plan.RootIDs {
		if _, ok := plan.Packages[root]; !ok {
			return nil, errors.Newf(errors.ErrPlanInvalid,
				"plan %s declares root %q but no such package", path, root)
		}
	}

	return plan, nil
}
