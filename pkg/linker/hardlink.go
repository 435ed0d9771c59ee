package linker

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/modlink/pkg/errors"
)

// hardlinkDir recursively links the contents of src into dst:
// directories are recreated, regular files hardlinked, symlinks
// recreated with their original target. Existing entries in dst are
// replaced so a forced relink lands on a clean slate.
func (l *Linker) hardlinkDir(src, dst string) error {
	if err := l.fs.MkdirAll(dst, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dst)
	}

	entries, err := l.fs.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read store directory %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := l.hardlinkDir(srcPath, dstPath); err != nil {
				return err
			}

		case entry.Type()&fs.ModeSymlink != 0:
			target, err := l.fs.Readlink(srcPath)
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot read link %s", srcPath)
			}
			if err := l.replace(dstPath); err != nil {
				return err
			}
			if err := l.fs.Symlink(target, dstPath); err != nil {
				return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot link %s", dstPath)
			}

		default:
			if err := l.replace(dstPath); err != nil {
				return err
			}
			if err := l.fs.Link(srcPath, dstPath); err != nil {
				return errors.Wrapf(err, errors.ErrHardlink,
					"cannot hardlink %s -> %s", srcPath, dstPath)
			}
		}
	}
	return nil
}

// replace removes an existing entry at path, tolerating its absence.
func (l *Linker) replace(path string) error {
	if _, err := l.fs.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}
	if err := l.fs.Remove(path); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove stale %s", path)
	}
	return nil
}
