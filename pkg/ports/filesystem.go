package ports

// FileSystem is the file access used for configuration and exports.
type FileSystem interface {
	// ReadFile returns the whole file. A missing file yields an error
	// matching fs.ErrNotExist.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file at path with data.
	WriteFile(path string, data []byte) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
}
