package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenGG/zconfig/internal/zconfig"
	"github.com/OpenGG/zconfig/internal/zconfig/domain"
)

// ManagerFactory builds the Manager for a project directory. An empty
// projectDir selects the caller's default, usually the working directory.
type ManagerFactory func(projectDir string, logger *slog.Logger) (*zconfig.Manager, error)

// session carries the state resolved once per invocation.
type session struct {
	factory  ManagerFactory
	prompter Prompter
	viper    *viper.Viper

	opts   Options
	logger *slog.Logger
	colors *palette
	mgr    *zconfig.Manager
}

// NewRootCommand constructs the root Cobra command for zconfig.
func NewRootCommand(factory ManagerFactory, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	s := &session{factory: factory, prompter: prompter, viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "zconfig",
		Short: "Switch between local configuration environments",
		Long: "zconfig keeps named snapshots (environments) of configuration files that stay out of\n" +
			"source control, such as .env files and secrets, and switches a project between them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s.configure(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	bindGlobalFlags(cmd.PersistentFlags(), s.viper)

	cmd.AddCommand(newInitCommand(s))
	cmd.AddCommand(newStatusCommand(s))
	cmd.AddCommand(newCheckoutCommand(s))
	cmd.AddCommand(newAddCommand(s))
	cmd.AddCommand(newResetCommand(s))
	cmd.AddCommand(newBranchCommand(s))
	cmd.AddCommand(newDiffCommand(s))
	cmd.AddCommand(newPruneCommand(s))

	return cmd
}

func (s *session) configure(stderr io.Writer) {
	s.opts = loadOptions(s.viper)
	s.logger = newLogger(stderr, s.opts.Verbose)
	s.colors = newPalette(s.opts.NoColor)
	if s.opts.NonInteractive || s.prompter == nil {
		s.prompter = nonInteractive{}
	}
}

// manager returns the Manager for the resolved project directory, building
// it on first use.
func (s *session) manager() (*zconfig.Manager, error) {
	if s.mgr != nil {
		return s.mgr, nil
	}
	mgr, err := s.factory(s.opts.ProjectDir, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("project resolved", "root", mgr.Paths().ProjectRoot())
	s.mgr = mgr
	return mgr, nil
}

// initializedManager is manager plus the workspace check, for commands that
// only read state.
func (s *session) initializedManager() (*zconfig.Manager, error) {
	mgr, err := s.manager()
	if err != nil {
		return nil, err
	}
	ok, err := mgr.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotInitialized
	}
	return mgr, nil
}

func newInitCommand(s *session) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up the zconfig workspace in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.manager()
			if err != nil {
				return err
			}
			initialized, err := mgr.IsInitialized()
			if err != nil {
				return err
			}
			if initialized {
				fmt.Fprintln(cmd.OutOrStdout(), "Project is already initialized.")
				return nil
			}

			projectName := strings.TrimSpace(name)
			if projectName == "" {
				projectName = mgr.DetectProjectName()
			}
			if err := mgr.Init(projectName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized zconfig for %s in %s\n", projectName, mgr.Paths().WorkspaceDir())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project display name (defaults to the name in package.json)")
	return cmd
}

func newStatusCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the tracked files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.initializedManager()
			if err != nil {
				return err
			}
			report, err := mgr.Status()
			if err != nil {
				return err
			}
			s.colors.printStatus(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newCheckoutCommand(s *session) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "checkout [env]",
		Short: "Switch to an environment, or create one with -b",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.initializedManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if create {
				name := ""
				if len(args) == 1 {
					name = args[0]
				} else {
					name, err = s.prompter.Prompt("New environment name")
					if err != nil {
						return err
					}
				}
				if err := mgr.CreateAndSwitch(name); err != nil {
					return err
				}
				fmt.Fprintf(out, "Created environment %s and switched to it.\n", mgr.CurrentEnv())
				return nil
			}

			env := ""
			if len(args) == 1 {
				env = args[0]
			} else {
				names := mgr.EnvironmentNames()
				if len(names) == 0 {
					return ErrNoEnvironments
				}
				current := mgr.CurrentEnv()
				names = reorderWithDefault(names, current)
				_, selected, err := s.prompter.Select("Select environment", names, current)
				if err != nil {
					return err
				}
				env = selected
			}

			if err := mgr.Switch(env); err != nil {
				return err
			}
			fmt.Fprintf(out, "Switched to environment %s\n", env)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&create, "branch", "b", false, "Create the environment from the current one and switch to it, asking for a name if none is given")
	return cmd
}

func newAddCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage files into the current environment",
		Long: "Copy each file into the current environment's snapshot and track it. A tracked\n" +
			"file that no longer exists in the project is removed from the environment instead.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.manager()
			if err != nil {
				return err
			}
			for _, rel := range args {
				action, err := mgr.RegisterFile(rel)
				if err != nil {
					return err
				}
				switch action {
				case zconfig.Forgotten:
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from environment \"%s\"\n", rel, mgr.CurrentEnv())
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Staged %s in environment \"%s\"\n", rel, mgr.CurrentEnv())
				}
			}
			return nil
		},
	}
}

func newResetCommand(s *session) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "reset <env>",
		Short: "Restore the current environment's snapshot over the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.manager()
			if err != nil {
				return err
			}
			report, err := mgr.Reset(args[0], hard)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Discarded) > 0 {
				fmt.Fprintf(out, "Discarded local changes: %s\n", strings.Join(report.Discarded, ", "))
			}
			for _, backup := range report.Backups {
				fmt.Fprintf(out, "Backed up to %s\n", backup)
			}
			fmt.Fprintf(out, "Environment %s restored.\n", report.Env)
			return nil
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Overwrite local modifications (a backup is kept)")
	return cmd
}

func newBranchCommand(s *session) *cobra.Command {
	var all, remove, force bool

	cmd := &cobra.Command{
		Use:   "branch [env]",
		Short: "List environments, or delete one with -d",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.initializedManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !remove {
				entries := mgr.ListEnvironments()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No environments yet. Create one with 'zconfig checkout -b <env>'.")
					return nil
				}
				s.colors.printEnvironments(out, entries, all)
				return nil
			}

			if len(args) == 0 {
				return errors.New("branch -d requires an environment name")
			}
			env := args[0]
			if !contains(mgr.EnvironmentNames(), env) {
				return fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, env)
			}
			if !force {
				confirm, err := s.prompter.Confirm(fmt.Sprintf("Delete environment %s and its snapshot? (y/N)", env), false)
				if err != nil {
					return err
				}
				if !confirm {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}
			if err := mgr.RemoveEnv(env); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted environment %s.\n", env)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show the number of tracked files per environment")
	cmd.Flags().BoolVarP(&remove, "delete", "d", false, "Delete the named environment")
	cmd.Flags().BoolVar(&force, "force", false, "Do not prompt for confirmation")
	return cmd
}

func newDiffCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [env]",
		Short: "Show differences between a snapshot and the project files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.manager()
			if err != nil {
				return err
			}
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			diffs, err := mgr.Diff(target)
			if err != nil {
				return err
			}
			for _, d := range diffs {
				s.colors.printDiff(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

const pruneCancel = "Cancel"

func newPruneCommand(s *session) *cobra.Command {
	var olderThanStr string
	var force bool

	cmd := &cobra.Command{
		Use:   "prune-backups",
		Short: "Remove outdated backup files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := s.initializedManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			choice := olderThanStr
			if choice == "" {
				options := []string{"30d", "90d", "180d", pruneCancel}
				_, choice, err = s.prompter.Select("Prune backups older than", options, "30d")
				if err != nil {
					return err
				}
				if choice == pruneCancel {
					fmt.Fprintln(out, "Prune cancelled.")
					return nil
				}
			}
			duration, err := zconfig.ParseRetentionInterval(choice)
			if err != nil {
				return err
			}

			if !force {
				confirm, err := s.prompter.Confirm(fmt.Sprintf("Delete backups older than %s? (y/N)", formatAge(duration)), false)
				if err != nil {
					return err
				}
				if !confirm {
					fmt.Fprintln(out, "Prune cancelled.")
					return nil
				}
			}

			count, err := mgr.PruneBackups(duration)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d backup(s).\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThanStr, "older-than", "", "Delete backups older than the specified duration (e.g. 30d, 12h)")
	cmd.Flags().BoolVar(&force, "force", false, "Do not prompt for confirmation")

	return cmd
}

// formatAge prints whole days as "Nd" and anything else as a Go duration.
func formatAge(d time.Duration) string {
	const day = 24 * time.Hour
	if d >= day && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return items
	}

	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)
	return reordered
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
