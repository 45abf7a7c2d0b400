package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	importRoots []string
	strictEnv   bool
)

// Exit codes: 0 success, 1 user error (parse/type/assert failure),
// 2 internal error.
const (
	exitOK       = 0
	exitUserErr  = 1
	exitInternal = 2
)

// exitError carries an explicit process exit code with an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// userErr marks err as a user error (exit code 1).
func userErr(err error) error { return &exitError{code: exitUserErr, err: err} }

// internalErr marks err as an internal error (exit code 2).
func internalErr(err error) error { return &exitError{code: exitInternal, err: err} }

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserErr
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ucg",
		Short: "ucg - Universal Configuration Grammar compiler",
		Long: `ucg compiles a single versioned source of truth written in the UCG
expression language into configuration artifacts in many target formats.

Features:
  - Statically type-inferred, purely functional expression language
  - Immutable bindings with copy-on-modify tuple semantics
  - Modules and closures with lexical scoping across imports
  - Memoized imports with cycle detection
  - Pluggable converters: JSON, YAML, TOML, XML, env, flags, exec
  - Built-in assertion test runner`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringArrayVarP(&importRoots, "import-path", "I", nil, "additional import root (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&strictEnv, "strict-env", false, "fail on missing environment variables")

	// Add subcommands
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newTestCommand())
	rootCmd.AddCommand(newConvertersCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newDevCommand())

	return rootCmd
}
