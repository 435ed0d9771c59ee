package testutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage. Unlike afero's
// MemMapFs it models hardlinks (paths sharing an inode), symlink
// traversal and inode identity, which is what the linker's
// idempotence check is built on. It also counts Link and Symlink
// calls so tests can assert that a second run does no work.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*fileNode

	nextInode uint64

	linkCalls    int
	symlinkCalls int
}

// fileNode represents a file, directory or symlink in memory. Regular
// files point at an inode that hardlinked paths share.
type fileNode struct {
	mode     fs.FileMode
	modTime  time.Time
	isDir    bool
	isLink   bool
	linkDest string
	inode    *inode
}

type inode struct {
	id      uint64
	content []byte
}

// NewMemoryFS creates an empty in-memory filesystem with a root
// directory.
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: map[string]*fileNode{
			"/": {mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true},
		},
		nextInode: 1,
	}
}

// LinkCalls returns how many hardlink operations ran.
func (m *MemoryFS) LinkCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.linkCalls
}

// SymlinkCalls returns how many symlink creations ran.
func (m *MemoryFS) SymlinkCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.symlinkCalls
}

// ResetCounters zeroes the operation counters between runs.
func (m *MemoryFS) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkCalls = 0
	m.symlinkCalls = 0
}

// resolve walks path element by element, expanding symlinks. When
// followLast is false the final element is returned as-is, matching
// Lstat semantics.
func (m *MemoryFS) resolve(path string, followLast bool) (string, error) {
	return m.resolveDepth(path, followLast, 0)
}

func (m *MemoryFS) resolveDepth(path string, followLast bool, depth int) (string, error) {
	path = filepath.Clean(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	const maxDepth = 40

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := "/"
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if part == "" {
			continue
		}
		cand := filepath.Join(cur, part)
		node, ok := m.files[cand]
		last := i == len(parts)-1
		if ok && node.isLink && (!last || followLast) {
			depth++
			if depth > maxDepth {
				return "", &fs.PathError{Op: "resolve", Path: path, Err: errors.New("too many levels of symbolic links")}
			}
			dest := node.linkDest
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(cur, dest)
			}
			resolved, err := m.resolveDepth(dest, true, depth)
			if err != nil {
				return "", err
			}
			cur = resolved
			continue
		}
		cur = cand
	}
	return cur, nil
}

func (m *MemoryFS) getNode(path string, followLast bool) (*fileNode, string, error) {
	resolved, err := m.resolve(path, followLast)
	if err != nil {
		return nil, "", err
	}
	node, ok := m.files[resolved]
	if !ok {
		return nil, resolved, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, resolved, nil
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, resolved, err := m.getNode(name, true)
	if err != nil {
		return nil, err
	}
	return newInfo(filepath.Base(resolved), node), nil
}

func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, resolved, err := m.getNode(name, false)
	if err != nil {
		return nil, err
	}
	return newInfo(filepath.Base(resolved), node), nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, _, err := m.getNode(name, true)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	content := make([]byte, len(node.inode.content))
	copy(content, node.inode.content)
	return content, nil
}

func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(name, true)
	if err != nil {
		return err
	}
	parent, ok := m.files[filepath.Dir(resolved)]
	if !ok || !parent.isDir {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrNotExist}
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[resolved] = &fileNode{
		mode:    perm,
		modTime: time.Now(),
		inode:   &inode{id: m.takeInode(), content: content},
	}
	return nil
}

func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(path, true)
	if err != nil {
		return err
	}
	parts := strings.Split(strings.TrimPrefix(resolved, "/"), "/")
	cur := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		cur = filepath.Join(cur, part)
		node, ok := m.files[cur]
		if ok {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: cur, Err: errors.New("not a directory")}
			}
			continue
		}
		m.files[cur] = &fileNode{mode: perm | fs.ModeDir, modTime: time.Now(), isDir: true}
	}
	return nil
}

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, resolved, err := m.getNode(name, true)
	if err != nil {
		return nil, err
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}

	prefix := resolved
	if prefix != "/" {
		prefix += "/"
	}
	var names []string
	for path := range m.files {
		if path == resolved || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, len(names))
	for i, n := range names {
		entries[i] = fs.FileInfoToDirEntry(newInfo(n, m.files[filepath.Join(resolved, n)]))
	}
	return entries, nil
}

func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(newname, false)
	if err != nil {
		return err
	}
	if _, exists := m.files[resolved]; exists {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	parent, ok := m.files[filepath.Dir(resolved)]
	if !ok || !parent.isDir {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrNotExist}
	}
	m.files[resolved] = &fileNode{
		mode:     0777 | fs.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: oldname,
	}
	m.symlinkCalls++
	return nil
}

func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, _, err := m.getNode(name, false)
	if err != nil {
		return "", err
	}
	if !node.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return node.linkDest, nil
}

func (m *MemoryFS) Link(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, _, err := m.getNode(oldname, true)
	if err != nil {
		return err
	}
	if src.isDir {
		return &fs.PathError{Op: "link", Path: oldname, Err: fs.ErrInvalid}
	}
	resolved, err := m.resolve(newname, false)
	if err != nil {
		return err
	}
	if _, exists := m.files[resolved]; exists {
		return &fs.PathError{Op: "link", Path: newname, Err: fs.ErrExist}
	}
	parent, ok := m.files[filepath.Dir(resolved)]
	if !ok || !parent.isDir {
		return &fs.PathError{Op: "link", Path: newname, Err: fs.ErrNotExist}
	}
	m.files[resolved] = &fileNode{
		mode:    src.mode,
		modTime: src.modTime,
		inode:   src.inode,
	}
	m.linkCalls++
	return nil
}

func (m *MemoryFS) SameFile(fi1, fi2 fs.FileInfo) bool {
	i1, ok1 := fi1.Sys().(*inode)
	i2, ok2 := fi2.Sys().(*inode)
	return ok1 && ok2 && i1 != nil && i1 == i2
}

func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, resolved, err := m.getNode(name, false)
	if err != nil {
		return err
	}
	if node.isDir {
		prefix := resolved + "/"
		for path := range m.files {
			if strings.HasPrefix(path, prefix) {
				return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
			}
		}
	}
	delete(m.files, resolved)
	return nil
}

func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(path, false)
	if err != nil {
		return err
	}
	prefix := resolved + "/"
	for p := range m.files {
		if p == resolved || strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldResolved, err := m.resolve(oldpath, false)
	if err != nil {
		return err
	}
	if _, ok := m.files[oldResolved]; !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	newResolved, err := m.resolve(newpath, false)
	if err != nil {
		return err
	}

	moved := make(map[string]*fileNode)
	prefix := oldResolved + "/"
	for p, n := range m.files {
		if p == oldResolved {
			moved[newResolved] = n
			delete(m.files, p)
		} else if strings.HasPrefix(p, prefix) {
			moved[newResolved+"/"+strings.TrimPrefix(p, prefix)] = n
			delete(m.files, p)
		}
	}
	for p, n := range moved {
		m.files[filepath.Clean(p)] = n
	}
	return nil
}

func (m *MemoryFS) takeInode() uint64 {
	id := m.nextInode
	m.nextInode++
	return id
}

// memInfo implements fs.FileInfo; Sys returns the node's inode so
// SameFile can compare physical identity.
type memInfo struct {
	name  string
	node  *fileNode
	size  int64
	inode *inode
}

func newInfo(name string, node *fileNode) *memInfo {
	info := &memInfo{name: name, node: node}
	if node != nil && node.inode != nil {
		info.size = int64(len(node.inode.content))
		info.inode = node.inode
	}
	return info
}

func (i *memInfo) Name() string       { return i.name }
func (i *memInfo) Size() int64        { return i.size }
func (i *memInfo) Mode() fs.FileMode  { return i.node.mode }
func (i *memInfo) ModTime() time.Time { return i.node.modTime }
func (i *memInfo) IsDir() bool        { return i.node.isDir }
func (i *memInfo) Sys() interface{}   { return i.inode }
