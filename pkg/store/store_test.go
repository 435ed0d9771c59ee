package store_test

import (
	iofs "io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modlink/pkg/errors"
	"github.com/arthur-debert/modlink/pkg/filesystem"
	"github.com/arthur-debert/modlink/pkg/store"
	"github.com/arthur-debert/modlink/pkg/types"
)

func newTestFS() types.FS {
	return filesystem.NewAferoFS(afero.NewMemMapFs())
}

func TestStore_Paths(t *testing.T) {
	s := store.New(newTestFS(), "/store")

	assert.Equal(t, "/store", s.Dir())
	assert.Equal(t, "/store/registry.npmjs.org!lodash!4.17.21/package",
		s.PackageDir("registry.npmjs.org/lodash/4.17.21"))
	assert.Equal(t, "/store/registry.npmjs.org!lodash!4.17.21/package/package.json",
		s.ManifestPath("registry.npmjs.org/lodash/4.17.21"))
}

func TestStore_ReadManifest(t *testing.T) {
	fs := newTestFS()
	s := store.New(fs, "/store")

	require.NoError(t, fs.MkdirAll("/store/lodash/package", 0755))
	require.NoError(t, fs.WriteFile("/store/lodash/package/package.json",
		[]byte(`{"name": "lodash", "version": "4.17.21"}`), 0644))

	m, err := s.ReadManifest("lodash")
	require.NoError(t, err)
	assert.Equal(t, "lodash", m.Name)
	assert.Equal(t, "4.17.21", m.Version)
}

func TestStore_ReadManifest_Missing(t *testing.T) {
	s := store.New(newTestFS(), "/store")

	_, err := s.ReadManifest("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStorePath))
}

func TestStore_ReadManifest_Invalid(t *testing.T) {
	fs := newTestFS()
	s := store.New(fs, "/store")

	require.NoError(t, fs.MkdirAll("/store/bad/package", 0755))
	require.NoError(t, fs.WriteFile("/store/bad/package/package.json", []byte(`{"bin": 42}`), 0644))

	_, err := s.ReadManifest("bad")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManifestParse))
}

func TestStore_Contains(t *testing.T) {
	fs := newTestFS()
	s := store.New(fs, "/store")

	ok, err := s.Contains("lodash")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.MkdirAll("/store/lodash/package", 0755))
	ok, err = s.Contains("lodash")
	require.NoError(t, err)
	assert.True(t, ok)
}

// statErrFS fails every Stat with a fixed error.
type statErrFS struct {
	types.FS
	err error
}

func (f statErrFS) Stat(name string) (iofs.FileInfo, error) {
	return nil, f.err
}

func TestStore_Contains_StatError(t *testing.T) {
	s := store.New(statErrFS{FS: newTestFS(), err: iofs.ErrPermission}, "/store")

	ok, err := s.Contains("lodash")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
}
