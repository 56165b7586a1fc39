package validator

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
	"github.com/OpenGG/zconfig/internal/zconfig/paths"
)

var (
	reservedNamePattern = regexp.MustCompile(`^(?i)(con|prn|aux|nul|com[1-9]|lpt[1-9])$`)
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Validator validates environment names and tracked paths.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateName validates an environment name. Environment names become
// directory names under the snapshot root.
//
// The function checks for:
//   - Empty names or whitespace-only names
//   - Dot navigation (. or ..)
//   - Null bytes
//   - Non-printable ASCII characters
//   - Invalid filesystem characters (<>:"/\|?*)
//   - Reserved Windows filenames (CON, PRN, AUX, NUL, COM1-9, LPT1-9)
//
// Returns (true, nil) if valid, or (false, error) with a descriptive error.
func (v *Validator) ValidateName(name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 {
		return false, domain.ErrEnvNameEmpty
	}
	if trimmed == "." || trimmed == ".." {
		return false, domain.ErrEnvNameDot
	}
	if strings.ContainsRune(trimmed, 0) {
		return false, domain.ErrEnvNameNullByte
	}
	for _, r := range trimmed {
		if r < 0x20 || r >= 0x7f {
			return false, domain.ErrEnvNameNonPrintable
		}
	}
	if invalidCharsPattern.MatchString(trimmed) {
		return false, domain.ErrEnvNameInvalidChars
	}
	if reservedNamePattern.MatchString(trimmed) {
		return false, domain.ErrEnvNameReserved
	}
	return true, nil
}

// NormalizeName trims whitespace and validates the name.
func (v *Validator) NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if ok, err := v.ValidateName(trimmed); !ok {
		return "", err
	}
	return trimmed, nil
}

// NormalizePath cleans a project-relative file path into the slash form used
// in the settings record. Absolute paths, paths that climb out of the project
// and paths inside the workspace directory are rejected.
func (v *Validator) NormalizePath(relPath string) (string, error) {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return "", domain.ErrPathEmpty
	}
	if filepath.IsAbs(trimmed) || strings.HasPrefix(trimmed, "/") || filepath.VolumeName(trimmed) != "" {
		return "", domain.ErrPathAbsolute
	}

	cleaned := path.Clean(filepath.ToSlash(trimmed))
	if cleaned == "." {
		return "", domain.ErrPathEmpty
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.ErrPathEscapes
	}

	first := strings.SplitN(cleaned, "/", 2)[0]
	if first == paths.WorkspaceDirName {
		return "", domain.ErrPathInWorkspace
	}
	return cleaned, nil
}
