package domain

import "errors"

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrNotInitialized       = errors.New("project is not initialized, run 'zconfig init' first")
	ErrAlreadyInitialized   = errors.New("project is already initialized")
	ErrEnvironmentExists    = errors.New("environment already exists")
	ErrUnknownEnvironment   = errors.New("unknown environment")
	ErrDirtyWorkspace       = errors.New("workspace is not clean")
	ErrNoCurrentEnvironment = errors.New("no environment selected")
	ErrFileNotFound         = errors.New("file does not exist")
	ErrEnvironmentMismatch  = errors.New("environment is not the current environment")
	ErrSymlink              = errors.New("refusing to operate on symlink")
)

// Environment name validation errors.
var (
	ErrEnvNameEmpty        = errors.New("environment name cannot be empty")
	ErrEnvNameDot          = errors.New("environment name cannot be '.' or '..'")
	ErrEnvNameNonPrintable = errors.New("environment name contains non-printable characters")
	ErrEnvNameInvalidChars = errors.New("environment name contains invalid characters (<>:\"/\\|?*)")
	ErrEnvNameReserved     = errors.New("environment name is a reserved system filename")
	ErrEnvNameNullByte     = errors.New("environment name contains null byte")
)

// Tracked path validation errors.
var (
	ErrPathEmpty       = errors.New("file path cannot be empty")
	ErrPathAbsolute    = errors.New("file path must be relative to the project root")
	ErrPathEscapes     = errors.New("file path escapes the project root")
	ErrPathInWorkspace = errors.New("file path points inside the zconfig workspace")
)

var recoverable = []error{
	ErrNotInitialized,
	ErrAlreadyInitialized,
	ErrEnvironmentExists,
	ErrUnknownEnvironment,
	ErrDirtyWorkspace,
	ErrNoCurrentEnvironment,
	ErrFileNotFound,
	ErrEnvironmentMismatch,
	ErrSymlink,
	ErrEnvNameEmpty,
	ErrEnvNameDot,
	ErrEnvNameNonPrintable,
	ErrEnvNameInvalidChars,
	ErrEnvNameReserved,
	ErrEnvNameNullByte,
	ErrPathEmpty,
	ErrPathAbsolute,
	ErrPathEscapes,
	ErrPathInWorkspace,
}

// IsRecoverable reports whether err is an expected user mistake rather than
// an I/O or programming failure.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range recoverable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
