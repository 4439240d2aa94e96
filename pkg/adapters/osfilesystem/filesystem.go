// Package osfilesystem provides the export filesystem backed by the os package.
package osfilesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/framescope/pkg/ports"
)

// FileSystem implements ports.FileSystem using the os package.
// Writes go to a temporary sibling first and are renamed into place,
// so a reader polling the dump directory never sees a partial frame.
type FileSystem struct {
	dirMode  os.FileMode
	fileMode os.FileMode
}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{dirMode: 0755, fileMode: 0644}
}

// ReadFile reads the entire contents of a file.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to path atomically, creating parent directories.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, fs.dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, fs.fileMode); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// MkdirAll creates a directory and all parent directories.
func (fs *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, fs.dirMode)
}

var _ ports.FileSystem = (*FileSystem)(nil)
