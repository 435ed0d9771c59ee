package types

import (
	"io/fs"
)

// FS is the filesystem interface required for modlink operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Link operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Link(oldname, newname string) error

	// SameFile reports whether two FileInfos describe the same
	// physical file. This is the idempotence check: a target manifest
	// hardlinked from the store is the same inode as the store copy.
	SameFile(fi1, fi2 fs.FileInfo) bool

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}
