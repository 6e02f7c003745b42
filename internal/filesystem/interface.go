// Package filesystem provides the read-only file access used while searching
// for version declarations, with an in-memory implementation for tests.
package filesystem

import (
	"io/fs"
)

// FileSystem provides an abstraction over file operations for testability
type FileSystem interface {
	// File operations
	ReadFile(path string) ([]byte, error)

	// Directory operations
	ReadDir(path string) ([]fs.DirEntry, error)

	// Path operations
	Stat(path string) (fs.FileInfo, error)
	Getwd() (string, error)
}
