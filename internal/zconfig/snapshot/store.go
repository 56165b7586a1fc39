package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/OpenGG/zconfig/internal/zconfig/paths"
	"github.com/OpenGG/zconfig/internal/zconfig/storage"
)

// Store manages one directory per environment, mirroring the relative layout
// of the environment's tracked files.
type Store struct {
	storage *storage.Storage
	paths   paths.PathBuilder
	logger  *slog.Logger
}

// New creates a new snapshot Store.
func New(storage *storage.Storage, paths paths.PathBuilder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{storage: storage, paths: paths, logger: logger}
}

// CreateEmpty makes an empty snapshot directory for a new environment.
func (s *Store) CreateEmpty(env string) error {
	if err := s.storage.MkdirAll(s.paths.EnvironmentDir(env)); err != nil {
		return fmt.Errorf("failed to create snapshot for %s: %w", env, err)
	}
	return nil
}

// CloneFrom copies the whole snapshot of source into a new snapshot named target.
// The caller copies the tracked-path list.
func (s *Store) CloneFrom(source, target string) error {
	src := s.paths.EnvironmentDir(source)
	exists, err := s.storage.IsDir(src)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn("snapshot directory missing, cloning as empty", "env", source)
		return s.CreateEmpty(target)
	}
	if err := s.storage.CopyDir(src, s.paths.EnvironmentDir(target)); err != nil {
		return fmt.Errorf("failed to clone %s into %s: %w", source, target, err)
	}
	return nil
}

// RestoreInto copies the snapshot of env over projectRoot, overwriting files at
// the same relative paths. Project files outside the snapshot are untouched.
func (s *Store) RestoreInto(env, projectRoot string) error {
	src := s.paths.EnvironmentDir(env)
	exists, err := s.storage.IsDir(src)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn("snapshot directory missing, nothing to restore", "env", env)
		return nil
	}
	if err := s.storage.CopyDir(src, projectRoot); err != nil {
		return fmt.Errorf("failed to restore %s: %w", env, err)
	}
	s.logger.Debug("snapshot restored", "env", env, "target", projectRoot)
	return nil
}

// PutFile writes content as the snapshot copy of relPath.
func (s *Store) PutFile(env, relPath string, content []byte) error {
	if err := s.storage.WriteFileAtomic(s.paths.SnapshotPath(env, relPath), content); err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", relPath, env, err)
	}
	return nil
}

// ReadFile returns the snapshot copy of relPath. found is false when the
// snapshot holds no such file.
func (s *Store) ReadFile(env, relPath string) (content []byte, found bool, err error) {
	path := s.paths.SnapshotPath(env, relPath)
	isFile, err := s.storage.IsFile(path)
	if err != nil || !isFile {
		return nil, false, err
	}
	content, err = s.storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read snapshot of %s: %w", relPath, err)
	}
	return content, true, nil
}

// RemoveFile deletes the snapshot copy of relPath.
func (s *Store) RemoveFile(env, relPath string) error {
	if err := s.storage.Remove(s.paths.SnapshotPath(env, relPath)); err != nil {
		return fmt.Errorf("failed to remove %s from %s: %w", relPath, env, err)
	}
	return nil
}

// Remove deletes the snapshot directory of env.
func (s *Store) Remove(env string) error {
	if err := s.storage.RemoveAll(s.paths.EnvironmentDir(env)); err != nil {
		return fmt.Errorf("failed to remove snapshot of %s: %w", env, err)
	}
	return nil
}
