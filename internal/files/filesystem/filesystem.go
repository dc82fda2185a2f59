package filesystem

import (
	"io/fs"
)

// FileInfo is fs.FileInfo, kept local so callers need not import io/fs.
type FileInfo = fs.FileInfo

// FileSystemProvider reads files and lists directories.
type FileSystemProvider interface {
	ReadFile(path string) ([]byte, error)

	// ReadDir lists the entries of a directory sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	Stat(path string) (FileInfo, error)
}
