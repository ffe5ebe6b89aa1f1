package fsutil

import (
	"fmt"
	"io/fs"
)

// FileStore provides an interface for file system operations
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// Stat returns the file's metadata without reading it
	Stat(path string) (fs.FileInfo, error)
}

// Fingerprint identifies a file version by modification time and size.
func Fingerprint(info fs.FileInfo) string {
	return fmt.Sprintf("%d/%d", info.ModTime().UnixNano(), info.Size())
}
