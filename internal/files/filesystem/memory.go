package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

func (f *memoryFileInfo) Mode() fs.FileMode {
	if f.isDir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

// MemoryFileSystem is an in-memory FileSystemProvider. Paths use forward
// slashes; directories exist implicitly as parents of added files.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: make(map[string][]byte)}
}

// AddFile stores content at name, replacing any previous content.
func (m *MemoryFileSystem) AddFile(name string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(name)] = append([]byte(nil), content...)
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), content...), nil
}

func (m *MemoryFileSystem) Stat(name string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := clean(name)
	if content, ok := m.files[p]; ok {
		return &memoryFileInfo{name: path.Base(p), size: int64(len(content))}, nil
	}
	if m.isDirLocked(p) {
		return &memoryFileInfo{name: path.Base(p), isDir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (m *MemoryFileSystem) ReadDir(name string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir := clean(name)
	if !m.isDirLocked(dir) {
		return nil, fmt.Errorf("failed to read directory: %w", &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist})
	}

	seen := make(map[string]FileInfo)
	for p, content := range m.files {
		rest, ok := childPath(dir, p)
		if !ok {
			continue
		}
		child, _, nested := strings.Cut(rest, "/")
		if nested {
			seen[child] = &memoryFileInfo{name: child, isDir: true}
		} else {
			seen[child] = &memoryFileInfo{name: child, size: int64(len(content))}
		}
	}

	result := make([]FileInfo, 0, len(seen))
	for _, info := range seen {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

func (m *MemoryFileSystem) isDirLocked(dir string) bool {
	if dir == "." {
		return true
	}
	for p := range m.files {
		if _, ok := childPath(dir, p); ok {
			return true
		}
	}
	return false
}

func childPath(dir, p string) (string, bool) {
	if dir == "." {
		return p, true
	}
	return strings.CutPrefix(p, dir+"/")
}

func clean(name string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
