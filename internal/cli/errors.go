package cli

import (
	"errors"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
)

var (
	// ErrPromptCancelled indicates that the user aborted an interactive prompt.
	ErrPromptCancelled = errors.New("prompt cancelled")
	// ErrNonInteractive is returned when a command needs a prompt but prompts are disabled.
	ErrNonInteractive = errors.New("input required but prompts are disabled (--non-interactive)")
	// ErrNoEnvironments is returned when a command needs to pick from an empty environment list.
	ErrNoEnvironments = errors.New("no environments defined, create one with 'zconfig checkout -b <env>'")
)

// IsRecoverable reports whether err is a user mistake that should be printed
// as a plain error message instead of a failure.
func IsRecoverable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrPromptCancelled), errors.Is(err, ErrNonInteractive), errors.Is(err, ErrNoEnvironments):
		return true
	default:
		return domain.IsRecoverable(err)
	}
}
