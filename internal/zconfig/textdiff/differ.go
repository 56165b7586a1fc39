// Package textdiff renders line-based unified diffs between two texts.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Differ turns two texts into unified hunks. File headers are left to the
// caller.
type Differ struct {
	Context int
}

// New creates a Differ with the default context size.
func New() *Differ {
	return &Differ{Context: DefaultContext}
}

// Diff returns the hunks turning oldText into newText. ok is false when the
// texts are equal.
func (d *Differ) Diff(oldText, newText string) (hunks string, ok bool, err error) {
	if oldText == newText {
		return "", false, nil
	}
	hunks, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:       splitLines(oldText),
		B:       splitLines(newText),
		Context: d.Context,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to render diff: %w", err)
	}
	if hunks == "" {
		return "", false, nil
	}
	return hunks, true, nil
}

// splitLines splits text into newline-terminated lines. Unlike
// difflib.SplitLines it yields no extra empty line after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}
