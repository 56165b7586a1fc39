package paths

import "path/filepath"

// Directory and file name constants for the zconfig workspace
const (
	WorkspaceDirName    = ".zconfig"
	SettingsFileName    = "config.json"
	EnvironmentsDirName = "environments"
	BackupDirName       = "backups"
)

// PathBuilder provides methods to construct zconfig paths relative to a project root.
type PathBuilder struct {
	projectRoot string
}

// New creates a new PathBuilder for the given project root.
func New(projectRoot string) PathBuilder {
	return PathBuilder{projectRoot: filepath.Clean(projectRoot)}
}

// ProjectRoot returns the project directory holding the live files.
func (p PathBuilder) ProjectRoot() string {
	return p.projectRoot
}

// WorkspaceDir returns the .zconfig directory path.
func (p PathBuilder) WorkspaceDir() string {
	return filepath.Join(p.projectRoot, WorkspaceDirName)
}

// SettingsPath returns the path to the settings record.
func (p PathBuilder) SettingsPath() string {
	return filepath.Join(p.WorkspaceDir(), SettingsFileName)
}

// EnvironmentsDir returns the directory holding one snapshot directory per environment.
func (p PathBuilder) EnvironmentsDir() string {
	return filepath.Join(p.WorkspaceDir(), EnvironmentsDirName)
}

// EnvironmentDir returns the snapshot directory of a named environment.
func (p PathBuilder) EnvironmentDir(env string) string {
	return filepath.Join(p.EnvironmentsDir(), env)
}

// SnapshotPath returns the snapshot copy of a tracked path.
func (p PathBuilder) SnapshotPath(env, relPath string) string {
	return filepath.Join(p.EnvironmentDir(env), filepath.FromSlash(relPath))
}

// ProjectPath returns the live copy of a tracked path.
func (p PathBuilder) ProjectPath(relPath string) string {
	return filepath.Join(p.projectRoot, filepath.FromSlash(relPath))
}

// BackupDir returns the directory where discarded local edits are kept.
func (p PathBuilder) BackupDir() string {
	return filepath.Join(p.WorkspaceDir(), BackupDirName)
}
