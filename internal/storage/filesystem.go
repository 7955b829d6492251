package storage

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
)

// FileSystem is the data directory of a client or server. All paths are
// relative to it.
type FileSystem struct {
	fs      afero.Fs
	baseDir string
}

// NewFileSystem roots a FileSystem at baseDir on disk, creating it if needed.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", baseDir, err)
	}
	return &FileSystem{
		fs:      afero.NewBasePathFs(osFs, baseDir),
		baseDir: baseDir,
	}, nil
}

// NewMemoryFileSystem creates a FileSystem backed by memory (useful for testing)
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		fs:      afero.NewMemMapFs(),
		baseDir: "data",
	}
}

// Dir returns the on-disk location of the data directory.
func (f *FileSystem) Dir() string {
	return f.baseDir
}

// Fs returns the underlying afero.Fs rooted at the data directory.
func (f *FileSystem) Fs() afero.Fs {
	return f.fs
}

// WriteFile replaces name atomically: data goes to a temporary sibling that
// is then renamed over the target.
func (f *FileSystem) WriteFile(name string, data []byte) error {
	if err := f.fs.MkdirAll(path.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := name + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0600); err != nil {
		return err
	}
	if err := f.fs.Rename(tmp, name); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}
	return nil
}

func (f *FileSystem) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(f.fs, name)
}

// Remove deletes name. A missing file is not an error.
func (f *FileSystem) Remove(name string) error {
	if err := f.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileSystem) Exists(name string) (bool, error) {
	return afero.Exists(f.fs, name)
}

// ReadDir lists the entry names of dir, or nothing when dir is missing.
func (f *FileSystem) ReadDir(dir string) ([]string, error) {
	infos, err := afero.ReadDir(f.fs, dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// Save copies reader into name, creating parent directories.
func (f *FileSystem) Save(name string, reader io.Reader) error {
	if err := f.fs.MkdirAll(path.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := f.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}
