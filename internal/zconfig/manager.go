package zconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/OpenGG/zconfig/internal/zconfig/backup"
	"github.com/OpenGG/zconfig/internal/zconfig/domain"
	"github.com/OpenGG/zconfig/internal/zconfig/paths"
	"github.com/OpenGG/zconfig/internal/zconfig/settings"
	"github.com/OpenGG/zconfig/internal/zconfig/snapshot"
	"github.com/OpenGG/zconfig/internal/zconfig/status"
	"github.com/OpenGG/zconfig/internal/zconfig/storage"
	"github.com/OpenGG/zconfig/internal/zconfig/textdiff"
	"github.com/OpenGG/zconfig/internal/zconfig/validator"
)

// NullLabel is the new-side label of a diff against no file.
const NullLabel = "/dev/null"

// Manager coordinates the environment operations of one project by delegating
// to specialized services.
type Manager struct {
	fs        afero.Fs
	paths     paths.PathBuilder
	storage   *storage.Storage
	settings  *settings.Service
	snapshots *snapshot.Store
	status    *status.Engine
	backup    *backup.Service
	validator *validator.Validator
	differ    *textdiff.Differ
	logger    *slog.Logger
}

// NewManager constructs a Manager for the project rooted at projectRoot.
// Pass a nil logger to discard log output.
func NewManager(fs afero.Fs, projectRoot string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pb := paths.New(projectRoot)
	stor := storage.New(fs)
	snapshots := snapshot.New(stor, pb, logger)

	return &Manager{
		fs:        fs,
		paths:     pb,
		storage:   stor,
		settings:  settings.New(stor, pb, logger),
		snapshots: snapshots,
		status:    status.New(stor, snapshots, pb),
		backup:    backup.New(stor, pb.BackupDir(), logger),
		validator: validator.New(),
		differ:    textdiff.New(),
		logger:    logger,
	}
}

// FileSystem returns the underlying filesystem.
func (m *Manager) FileSystem() afero.Fs {
	return m.fs
}

// Paths returns the path builder of the project.
func (m *Manager) Paths() paths.PathBuilder {
	return m.paths
}

// SetNow allows overriding the clock used for backups.
func (m *Manager) SetNow(now func() time.Time) {
	m.backup.SetNow(now)
}

// IsInitialized reports whether the project has a zconfig workspace.
func (m *Manager) IsInitialized() (bool, error) {
	return m.settings.IsInitialized()
}

// Init creates the workspace with a fresh settings record.
func (m *Manager) Init(projectName string) error {
	if strings.TrimSpace(projectName) == "" {
		projectName = settings.UnavailableName
	}
	if err := m.settings.Init(projectName); err != nil {
		return err
	}
	m.logger.Info("workspace initialized", "project", projectName, "path", m.paths.WorkspaceDir())
	return nil
}

// DetectProjectName returns the name field of the project's package.json, or
// the unavailable marker when there is none.
func (m *Manager) DetectProjectName() string {
	data, err := m.storage.ReadFile(m.paths.ProjectPath("package.json"))
	if err != nil {
		return settings.UnavailableName
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || strings.TrimSpace(pkg.Name) == "" {
		return settings.UnavailableName
	}
	return pkg.Name
}

// ProjectName returns the display name stored in the settings record.
func (m *Manager) ProjectName() string {
	return m.settings.Load().Project.Name
}

// CurrentEnv returns the active environment, or "" when none is selected.
func (m *Manager) CurrentEnv() string {
	return m.settings.Load().CurrentEnv()
}

// Status classifies the tracked files of the current environment.
func (m *Manager) Status() (status.Report, error) {
	return m.status.Current(m.settings.Load())
}

// EnvironmentEntry describes an environment for list output.
type EnvironmentEntry struct {
	Name    string
	Current bool
	Files   int
}

// ListEnvironments returns every environment sorted by name.
func (m *Manager) ListEnvironments() []EnvironmentEntry {
	record := m.settings.Load()
	current := record.CurrentEnv()

	names := make([]string, 0, len(record.Environments))
	for name := range record.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]EnvironmentEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, EnvironmentEntry{
			Name:    name,
			Current: name == current,
			Files:   len(record.Tracked(name)),
		})
	}
	return entries
}

// EnvironmentNames returns the names of all environments, sorted.
func (m *Manager) EnvironmentNames() []string {
	entries := m.ListEnvironments()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

// CreateAndSwitch creates env and makes it current. With no current
// environment the new one starts empty; otherwise it clones the current
// environment's snapshot and tracked list. The workspace must be clean.
func (m *Manager) CreateAndSwitch(env string) error {
	record, err := m.load()
	if err != nil {
		return err
	}
	name, err := m.validator.NormalizeName(env)
	if err != nil {
		return fmt.Errorf("invalid environment name: %w", err)
	}
	if record.HasEnvironment(name) {
		return fmt.Errorf("%w: %q", domain.ErrEnvironmentExists, name)
	}
	if err := m.requireClean(record); err != nil {
		return err
	}

	current := record.CurrentEnv()
	if current == "" {
		if err := m.snapshots.CreateEmpty(name); err != nil {
			return err
		}
		record.Environments[name] = []string{}
	} else {
		if err := m.snapshots.CloneFrom(current, name); err != nil {
			return err
		}
		record.Environments[name] = append([]string{}, record.Tracked(current)...)
	}
	if err := m.settings.Save(record); err != nil {
		return err
	}
	m.logger.Debug("environment created", "env", name, "from", current)

	return m.switchTo(record, name)
}

// Switch restores env's snapshot over the project and makes it current.
// The workspace must be clean.
func (m *Manager) Switch(env string) error {
	record, err := m.load()
	if err != nil {
		return err
	}
	if !record.HasEnvironment(env) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, env)
	}
	if err := m.requireClean(record); err != nil {
		return err
	}
	return m.switchTo(record, env)
}

func (m *Manager) switchTo(record *settings.Record, env string) error {
	if err := m.snapshots.RestoreInto(env, m.paths.ProjectRoot()); err != nil {
		return err
	}
	record.SetCurrentEnv(env)
	if err := m.settings.Save(record); err != nil {
		return err
	}
	m.logger.Debug("switched environment", "env", env)
	return nil
}

// RegisterAction reports what RegisterFile did.
type RegisterAction int

const (
	// Staged means the project file was copied into the current snapshot.
	Staged RegisterAction = iota
	// Forgotten means a tracked file absent from the project was untracked.
	Forgotten
)

func (a RegisterAction) String() string {
	switch a {
	case Staged:
		return "staged"
	case Forgotten:
		return "forgotten"
	default:
		return "unknown"
	}
}

// RegisterFile stages relPath into the current environment. When the file
// exists in the project its content is copied into the snapshot and the path
// is tracked once. When it is tracked but gone from the project it is removed
// from the snapshot and untracked.
func (m *Manager) RegisterFile(relPath string) (RegisterAction, error) {
	record, err := m.load()
	if err != nil {
		return Staged, err
	}
	current := record.CurrentEnv()
	if current == "" {
		return Staged, domain.ErrNoCurrentEnvironment
	}
	rel, err := m.validator.NormalizePath(relPath)
	if err != nil {
		return Staged, fmt.Errorf("invalid file path %q: %w", relPath, err)
	}

	projectPath := m.paths.ProjectPath(rel)
	exists, err := m.storage.IsFile(projectPath)
	if err != nil {
		return Staged, err
	}

	if exists {
		content, err := m.storage.ReadFile(projectPath)
		if err != nil {
			return Staged, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if err := m.snapshots.PutFile(current, rel, content); err != nil {
			return Staged, err
		}
		if record.Track(current, rel) {
			if err := m.settings.Save(record); err != nil {
				return Staged, err
			}
		}
		m.logger.Debug("file staged", "env", current, "path", rel)
		return Staged, nil
	}

	if record.IsTracked(current, rel) {
		if err := m.snapshots.RemoveFile(current, rel); err != nil {
			return Forgotten, err
		}
		record.Untrack(current, rel)
		if err := m.settings.Save(record); err != nil {
			return Forgotten, err
		}
		m.logger.Debug("file forgotten", "env", current, "path", rel)
		return Forgotten, nil
	}

	return Staged, fmt.Errorf("%w: %q", domain.ErrFileNotFound, rel)
}

// ResetReport describes a completed reset.
type ResetReport struct {
	Env string
	// Discarded lists the tracked paths whose local edits were overwritten.
	Discarded []string
	// Backups lists the backup copies taken of modified files.
	Backups []string
}

// Reset restores the current environment's snapshot over the project. A
// dirty workspace is refused unless hard is set, in which case modified
// project files are backed up first.
func (m *Manager) Reset(env string, hard bool) (ResetReport, error) {
	report := ResetReport{Env: env}
	record, err := m.load()
	if err != nil {
		return report, err
	}
	if record.CurrentEnv() != env {
		return report, fmt.Errorf("%w: %q", domain.ErrEnvironmentMismatch, env)
	}
	if !record.HasEnvironment(env) {
		return report, fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, env)
	}

	st, err := m.status.Evaluate(record, env)
	if err != nil {
		return report, err
	}
	if !st.Clean() {
		if !hard {
			return report, fmt.Errorf("%w: %s", domain.ErrDirtyWorkspace, describeDirty(st))
		}
		for _, rel := range st.Modified {
			backupPath, err := m.backup.BackupFile(m.paths.ProjectPath(rel))
			if err != nil {
				return report, err
			}
			if backupPath != "" {
				report.Backups = append(report.Backups, backupPath)
			}
		}
		report.Discarded = append(append(report.Discarded, st.Modified...), st.Deleted...)
	}

	if err := m.snapshots.RestoreInto(env, m.paths.ProjectRoot()); err != nil {
		return report, err
	}
	m.logger.Debug("environment reset", "env", env, "hard", hard, "discarded", len(report.Discarded))
	return report, nil
}

// RemoveEnv deletes env's tracked list and snapshot. Removing the current
// environment clears the pointer and leaves the project files untouched.
func (m *Manager) RemoveEnv(env string) error {
	record, err := m.load()
	if err != nil {
		return err
	}
	if !record.HasEnvironment(env) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, env)
	}

	delete(record.Environments, env)
	if err := m.snapshots.Remove(env); err != nil {
		return err
	}
	if record.CurrentEnv() == env {
		record.SetCurrentEnv("")
	}
	if err := m.settings.Save(record); err != nil {
		return err
	}
	m.logger.Debug("environment removed", "env", env)
	return nil
}

// FileDiff is one rendered file difference.
type FileDiff struct {
	Path     string
	OldLabel string
	NewLabel string
	Hunks    string
}

// Diff compares snapshot content with the live project. With an empty target
// the current environment is used. When target names another environment, its
// paths that the current environment does not track are also diffed against
// empty content, as if removed.
func (m *Manager) Diff(target string) ([]FileDiff, error) {
	record, err := m.load()
	if err != nil {
		return nil, err
	}
	current := record.CurrentEnv()
	if current == "" {
		return nil, domain.ErrNoCurrentEnvironment
	}
	if target != "" && !record.HasEnvironment(target) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, target)
	}

	env := current
	if target != "" {
		env = target
	}

	var diffs []FileDiff
	for _, rel := range record.Tracked(env) {
		projectPath := m.paths.ProjectPath(rel)
		exists, err := m.storage.IsFile(projectPath)
		if err != nil {
			return nil, err
		}
		stored, found, err := m.snapshots.ReadFile(env, rel)
		if err != nil {
			return nil, err
		}

		if exists && found {
			live, err := m.storage.ReadFile(projectPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", rel, err)
			}
			d, ok, err := m.fileDiff(env, rel, "b/"+rel, string(stored), string(live))
			if err != nil {
				return nil, err
			}
			if ok {
				diffs = append(diffs, d)
			}
		}

		if env != current && found && !record.IsTracked(current, rel) {
			d, ok, err := m.fileDiff(env, rel, NullLabel, string(stored), "")
			if err != nil {
				return nil, err
			}
			if ok {
				diffs = append(diffs, d)
			}
		}
	}
	return diffs, nil
}

func (m *Manager) fileDiff(env, rel, newLabel, oldText, newText string) (FileDiff, bool, error) {
	hunks, ok, err := m.differ.Diff(oldText, newText)
	if err != nil || !ok {
		return FileDiff{}, false, err
	}
	return FileDiff{
		Path:     rel,
		OldLabel: "a/" + env + "/" + rel,
		NewLabel: newLabel,
		Hunks:    hunks,
	}, true, nil
}

// PruneBackups removes backups older than the provided duration and returns
// the number removed.
func (m *Manager) PruneBackups(olderThan time.Duration) (int, error) {
	if _, err := m.load(); err != nil {
		return 0, err
	}
	return m.backup.PruneBackups(olderThan)
}

// load returns the settings record of an initialized project.
func (m *Manager) load() (*settings.Record, error) {
	initialized, err := m.settings.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, domain.ErrNotInitialized
	}
	return m.settings.Load(), nil
}

func (m *Manager) requireClean(record *settings.Record) error {
	st, err := m.status.Current(record)
	if err != nil {
		return err
	}
	if !st.Clean() {
		return fmt.Errorf("%w: %s", domain.ErrDirtyWorkspace, describeDirty(st))
	}
	return nil
}

func describeDirty(st status.Report) string {
	parts := make([]string, 0, 2)
	if len(st.Modified) > 0 {
		parts = append(parts, "modified "+strings.Join(st.Modified, ", "))
	}
	if len(st.Deleted) > 0 {
		parts = append(parts, "deleted "+strings.Join(st.Deleted, ", "))
	}
	return strings.Join(parts, "; ")
}

// NewOsManager is a convenience for the binary: a Manager over the real
// filesystem.
func NewOsManager(projectRoot string, logger *slog.Logger) (*Manager, error) {
	info, err := os.Stat(projectRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("project directory %s does not exist", projectRoot)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", projectRoot)
	}
	return NewManager(afero.NewOsFs(), projectRoot, logger), nil
}
