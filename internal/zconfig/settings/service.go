package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
	"github.com/OpenGG/zconfig/internal/zconfig/paths"
	"github.com/OpenGG/zconfig/internal/zconfig/storage"
	"github.com/OpenGG/zconfig/internal/zconfig/validator"
)

const (
	// SchemaVersion is the only settings record version written so far.
	SchemaVersion = "1"
	// UnavailableName is the project name used when none is known.
	UnavailableName = "<unavailable>"
)

// Record is the persisted settings record.
type Record struct {
	Version      string              `json:"version"`
	Project      Project             `json:"project"`
	Environments map[string][]string `json:"environments"`
}

// Project holds the project level fields of the record.
type Project struct {
	Name string  `json:"name"`
	Env  *string `json:"env"`
}

// Default returns a fresh record with no environments and no current environment.
func Default(projectName string) *Record {
	return &Record{
		Version:      SchemaVersion,
		Project:      Project{Name: projectName},
		Environments: map[string][]string{},
	}
}

// CurrentEnv returns the active environment name or "" when none is selected.
func (r *Record) CurrentEnv() string {
	if r.Project.Env == nil {
		return ""
	}
	return *r.Project.Env
}

// SetCurrentEnv points the record at env. An empty name clears the pointer.
func (r *Record) SetCurrentEnv(env string) {
	if env == "" {
		r.Project.Env = nil
		return
	}
	r.Project.Env = &env
}

// HasEnvironment reports whether env is a known environment.
func (r *Record) HasEnvironment(env string) bool {
	_, ok := r.Environments[env]
	return ok
}

// Tracked returns the tracked paths of env.
func (r *Record) Tracked(env string) []string {
	return r.Environments[env]
}

// IsTracked reports whether relPath is tracked by env.
func (r *Record) IsTracked(env, relPath string) bool {
	for _, p := range r.Environments[env] {
		if p == relPath {
			return true
		}
	}
	return false
}

// Track adds relPath to env's tracked list. It returns false if already tracked.
func (r *Record) Track(env, relPath string) bool {
	if r.IsTracked(env, relPath) {
		return false
	}
	r.Environments[env] = append(r.Environments[env], relPath)
	return true
}

// Untrack removes relPath from env's tracked list.
func (r *Record) Untrack(env, relPath string) {
	list := r.Environments[env]
	kept := make([]string, 0, len(list))
	for _, p := range list {
		if p != relPath {
			kept = append(kept, p)
		}
	}
	r.Environments[env] = kept
}

// Service loads and saves the settings record. It is the only reader and
// writer of the settings file.
type Service struct {
	storage   *storage.Storage
	paths     paths.PathBuilder
	validator *validator.Validator
	logger    *slog.Logger
}

// New creates a new settings Service.
func New(storage *storage.Storage, paths paths.PathBuilder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		storage:   storage,
		paths:     paths,
		validator: validator.New(),
		logger:    logger,
	}
}

// IsInitialized reports whether the workspace root exists.
func (s *Service) IsInitialized() (bool, error) {
	return s.storage.IsDir(s.paths.WorkspaceDir())
}

// Init creates the workspace root, the snapshot root and a fresh record.
func (s *Service) Init(projectName string) error {
	initialized, err := s.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return domain.ErrAlreadyInitialized
	}
	if err := s.storage.MkdirAll(s.paths.WorkspaceDir()); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := s.storage.MkdirAll(s.paths.EnvironmentsDir()); err != nil {
		return fmt.Errorf("failed to create environments directory: %w", err)
	}
	return s.Save(Default(projectName))
}

// Load reads the settings record. Any failure yields the default record.
//
// Nil environment lists are normalized to empty lists, tracked paths that
// are not valid project-relative paths are dropped, and a current
// environment that is not a key of the environment map is dropped.
func (s *Service) Load() *Record {
	data, err := s.storage.ReadFile(s.paths.SettingsPath())
	if err != nil {
		s.logger.Debug("settings unavailable, using defaults",
			"path", s.paths.SettingsPath(),
			"error", err)
		return Default(UnavailableName)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("settings file is corrupt, using defaults",
			"path", s.paths.SettingsPath(),
			"error", err)
		return Default(UnavailableName)
	}

	if record.Version == "" {
		record.Version = SchemaVersion
	}
	if record.Environments == nil {
		record.Environments = map[string][]string{}
	}
	for env, list := range record.Environments {
		record.Environments[env] = s.sanitizeTracked(env, list)
	}
	if env := record.CurrentEnv(); env != "" && !record.HasEnvironment(env) {
		s.logger.Warn("current environment is not registered, clearing it", "env", env)
		record.SetCurrentEnv("")
	}
	return &record
}

// sanitizeTracked normalizes a tracked list, dropping invalid and duplicate
// entries.
func (s *Service) sanitizeTracked(env string, list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, raw := range list {
		rel, err := s.validator.NormalizePath(raw)
		if err != nil {
			s.logger.Warn("dropping invalid tracked path", "env", env, "path", raw, "error", err)
			continue
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		out = append(out, rel)
	}
	return out
}

// Save writes the record as indented JSON with a trailing newline.
func (s *Service) Save(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')
	if err := s.storage.WriteFileAtomic(s.paths.SettingsPath(), data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
