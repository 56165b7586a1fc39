package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Storage provides low-level file operations with security validations.
// Existence checks report a missing path as false and only fail on genuine
// I/O errors.
type Storage struct {
	fs afero.Fs
}

// New creates a new Storage instance.
func New(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// ValidatePathSafety checks that the path is not a symlink, preventing symlink attacks.
// It returns nil if the path doesn't exist or is a regular file/directory.
func (s *Storage) ValidatePathSafety(path string) error {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to check path: %w", err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", domain.ErrSymlink, path)
		}
	}
	// In-memory filesystems don't support symlinks anyway
	return nil
}

// IsFile reports whether path exists and is a regular file.
func (s *Storage) IsFile(path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// IsDir reports whether path exists and is a directory.
func (s *Storage) IsDir(path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

// CopyFile copies a file from src to dst, atomically replacing the destination.
// The destination keeps the permission bits of the source.
func (s *Storage) CopyFile(src, dst string) (err error) {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	source, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	perm := info.Mode().Perm()
	if perm == 0 {
		perm = filePerm
	}

	if err := s.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	dest, err := s.tempFile(dst)
	if err != nil {
		return err
	}
	tmp := dest.Name()

	_, copyErr := io.Copy(dest, source)
	closeErr := dest.Close()

	if copyErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("copy data: %w", copyErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	return s.commit(tmp, dst, perm)
}

// tempFile creates a uniquely named hidden file next to dst, so the rename
// stays on one filesystem and never clobbers a sibling such as "dst.tmp".
func (s *Storage) tempFile(dst string) (afero.File, error) {
	f, err := afero.TempFile(s.fs, filepath.Dir(dst), "."+filepath.Base(dst)+".zconfig-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return f, nil
}

// commit applies perm to the temp file and renames it over dst.
func (s *Storage) commit(tmp, dst string, perm os.FileMode) error {
	if err := s.fs.Chmod(tmp, perm); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// CopyDir recursively mirrors the tree rooted at src into dst. Existing files
// at the same relative paths are overwritten; other files under dst are left
// alone. The copy is not transactional.
func (s *Storage) CopyDir(src, dst string) error {
	return afero.Walk(s.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			if err := s.fs.MkdirAll(target, dirPerm); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			return nil
		}
		return s.CopyFile(path, target)
	})
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFile writes data to a file, creating parent directories as needed.
func (s *Storage) WriteFile(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return afero.WriteFile(s.fs, path, data, filePerm)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func (s *Storage) WriteFileAtomic(path string, data []byte) error {
	if err := s.ValidatePathSafety(path); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := s.tempFile(path)
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if writeErr != nil {
			return fmt.Errorf("write temp file: %w", writeErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	return s.commit(tmp, path, filePerm)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates a directory and its parents.
func (s *Storage) MkdirAll(path string) error {
	return s.fs.MkdirAll(path, dirPerm)
}

// ReadDir reads directory contents.
func (s *Storage) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// Remove deletes a file. A missing file is not an error.
func (s *Storage) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll recursively deletes path.
func (s *Storage) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// Chtimes changes file access and modification times.
func (s *Storage) Chtimes(path string, atime, mtime time.Time) error {
	return s.fs.Chtimes(path, atime, mtime)
}
