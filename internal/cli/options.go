package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override global flags.
const EnvPrefix = "ZCONFIG"

const (
	keyProjectDir     = "project-dir"
	keyVerbose        = "verbose"
	keyNoColor        = "no-color"
	keyNonInteractive = "non-interactive"
)

// Options are the global settings shared by every command.
type Options struct {
	ProjectDir     string
	Verbose        bool
	NoColor        bool
	NonInteractive bool
}

// bindGlobalFlags registers the global flags and binds them to v so that
// ZCONFIG_* environment variables can stand in for them.
func bindGlobalFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP(keyProjectDir, "C", "", "Run as if zconfig was started in this directory")
	flags.BoolP(keyVerbose, "v", false, "Enable debug logging on stderr")
	flags.Bool(keyNoColor, false, "Disable colored output")
	flags.Bool(keyNonInteractive, false, "Never prompt; fail when input would be required")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{keyProjectDir, keyVerbose, keyNoColor, keyNonInteractive} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
}

func loadOptions(v *viper.Viper) Options {
	return Options{
		ProjectDir:     strings.TrimSpace(v.GetString(keyProjectDir)),
		Verbose:        v.GetBool(keyVerbose),
		NoColor:        v.GetBool(keyNoColor),
		NonInteractive: v.GetBool(keyNonInteractive),
	}
}

// newLogger writes warnings to stderr, or everything with --verbose.
func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}
