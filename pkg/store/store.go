// Package store models the shared content-addressed store the linker
// links from. The store holds one physical copy per fetched package
// version; this subsystem only ever reads it.
package store

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/modlink/pkg/errors"
	"github.com/arthur-debert/modlink/pkg/types"
)

// Store locates package content inside the content store directory.
type Store struct {
	dir string
	fs  types.FS
}

// New returns a Store rooted at dir.
func New(fs types.FS, dir string) *Store {
	return &Store{dir: dir, fs: fs}
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// PackageDir returns the directory holding a package's extracted
// content. Package ids contain slashes, so they are escaped into a
// single path element.
func (s *Store) PackageDir(id string) string {
	return filepath.Join(s.dir, types.EscapeID(id), "package")
}

// ManifestPath returns the path of a package's manifest inside the
// store.
func (s *Store) ManifestPath(id string) string {
	return filepath.Join(s.PackageDir(id), "package.json")
}

// Contains reports whether the store holds content for id.
func (s *Store) Contains(id string) (bool, error) {
	_, err := s.fs.Stat(s.PackageDir(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat store entry for %s", id)
}

// ReadManifest loads and parses a package's manifest from the store.
func (s *Store) ReadManifest(id string) (*types.Manifest, error) {
	data, err := s.fs.ReadFile(s.ManifestPath(id))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStorePath,
			"cannot read store manifest for %s", id)
	}
	manifest, err := types.ParseManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse,
			"invalid manifest for %s", id)
	}
	return manifest, nil
}
