package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/OpenGG/zconfig/internal/zconfig"
	"github.com/OpenGG/zconfig/internal/zconfig/status"
)

// palette holds the colors used for command output. Every color can be
// switched off at once for --no-color.
type palette struct {
	current *color.Color
	success *color.Color
	warning *color.Color
	changed *color.Color
	header  *color.Color
	hunk    *color.Color
	added   *color.Color
	removed *color.Color
	dim     *color.Color
}

func newPalette(noColor bool) *palette {
	p := &palette{
		current: color.New(color.FgGreen),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		changed: color.New(color.FgRed),
		header:  color.New(color.Bold),
		hunk:    color.New(color.FgCyan),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		dim:     color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.current, p.success, p.warning, p.changed, p.header, p.hunk, p.added, p.removed, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) printStatus(w io.Writer, report status.Report) {
	if report.Env == "" {
		fmt.Fprintf(w, "Environment: %s\n\n", p.warning.Sprint("<undefined>"))
	} else {
		fmt.Fprintf(w, "Environment: %s\n\n", report.Env)
	}

	if report.Clean() {
		if len(report.Unchanged) > 0 {
			for i, rel := range report.Unchanged {
				fmt.Fprintf(w, "   [%d] %s\n", i+1, rel)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, p.success.Sprint("Your configuration is up to date"))
		fmt.Fprintln(w, "Workspace clean")
		return
	}

	if len(report.Modified) > 0 {
		fmt.Fprintln(w, "Changes not staged:")
		for _, rel := range report.Modified {
			fmt.Fprintln(w, p.changed.Sprintf("   modified: %s", rel))
		}
	}
	for _, rel := range report.Deleted {
		fmt.Fprintln(w, p.changed.Sprintf("   deleted: %s", rel))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "zconfig add <path>" to stage the changes, or "zconfig reset <env> --hard" to discard them`)
}

func (p *palette) printEnvironments(w io.Writer, entries []zconfig.EnvironmentEntry, verbose bool) {
	for _, entry := range entries {
		line := entry.Name
		if verbose {
			line = fmt.Sprintf("%s %s", entry.Name, p.dim.Sprintf("(%d %s)", entry.Files, plural(entry.Files, "file", "files")))
		}
		if entry.Current {
			fmt.Fprintln(w, p.current.Sprintf("* %s", line))
		} else {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)
}

func (p *palette) printDiff(w io.Writer, d zconfig.FileDiff) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.header.Sprintf("--- %s", d.OldLabel))
	fmt.Fprintln(w, p.header.Sprintf("+++ %s", d.NewLabel))
	for _, line := range strings.SplitAfter(d.Hunks, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "@@"):
			fmt.Fprintln(w, p.hunk.Sprint(text))
		case strings.HasPrefix(text, "+"):
			fmt.Fprintln(w, p.added.Sprint(text))
		case strings.HasPrefix(text, "-"):
			fmt.Fprintln(w, p.removed.Sprint(text))
		default:
			fmt.Fprintln(w, text)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
