package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OpenGG/zconfig/internal/cli"
	"github.com/OpenGG/zconfig/internal/zconfig"
)

// Exit codes.
const (
	exitOK        = 0
	exitUserError = 1
	exitFailure   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getwd))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getwd func() (string, error)) int {
	factory := func(projectDir string, logger *slog.Logger) (*zconfig.Manager, error) {
		if projectDir == "" {
			wd, err := getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to determine working directory: %w", err)
			}
			projectDir = wd
		}
		root, err := filepath.Abs(projectDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project directory: %w", err)
		}
		return zconfig.NewOsManager(root, logger)
	}

	cmd := cli.NewRootCommand(factory, cli.NewPromptUIWithIO(stdin, stdout), stdout, stderr)
	cmd.SetArgs(args)
	return exitCode(cmd.Execute(), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case cli.IsRecoverable(err):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUserError
	default:
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return exitFailure
	}
}
