package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/internal/cli/commands"
	"github.com/nonibytes/dql/internal/cliopt"
	"github.com/nonibytes/dql/internal/cliutil"
)

const rootLong = `dql: a small query language over JSON documents.

Queries combine field matches, comparisons and free text:

  status:active AND age>=21
  region:("us-west" OR "us-east") AND NOT tier:free
  quick brown fox

Documents live in a store backed by SQLite (default) or PostgreSQL.
Global flags may also be set in a TOML file given with --config; flags
on the command line win over the file.`

// NewRootCommand builds the command tree around env. env.Global is filled
// from flags and the optional config file before any command runs.
func NewRootCommand(env *cliutil.Env) *cobra.Command {
	env.Global = cliopt.DefaultGlobalOptions()
	root := &cobra.Command{
		Use:           "dql",
		Short:         "Query JSON documents with DQL",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if env.Global.Config != "" {
				if err := cliopt.LoadFile(env.Global.Config, &env.Global, cmd.Flags().Changed); err != nil {
					return &cliutil.UsageError{Err: err}
				}
			}
			if _, err := cliutil.ParseOutputFormat(env.Global.Output); err != nil {
				return &cliutil.UsageError{Err: err}
			}
			if env.Global.MaxDepth < 0 {
				return cliutil.Usagef("--max-depth must not be negative")
			}
			log, err := cliutil.NewLogger(env.Stderr, env.Global.LogLevel)
			if err != nil {
				return &cliutil.UsageError{Err: err}
			}
			env.Log = log
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cliutil.UsageError{Err: err}
	})
	cliopt.BindGlobalFlags(root.PersistentFlags(), &env.Global)

	root.AddCommand(
		commands.NewTokensCmd(env),
		commands.NewParseCmd(env),
		commands.NewFmtCmd(env),
		commands.NewSQLCmd(env),
		commands.NewFieldsCmd(env),
		commands.NewStoreCmd(env),
		commands.NewPutCmd(env),
		commands.NewGetCmd(env),
		commands.NewDeleteCmd(env),
		commands.NewSearchCmd(env),
		commands.NewCountCmd(env),
		commands.NewStatsCmd(env),
		commands.NewValuesCmd(env),
	)
	return root
}

// Execute runs the CLI on the process streams and returns an exit code.
func Execute(argv []string) int {
	return Run(argv, os.Stdin, os.Stdout, os.Stderr)
}

// Run runs the CLI with argv and the given streams. It returns 0 on
// success, 2 for command line mistakes and 1 for everything else.
func Run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env := &cliutil.Env{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	root := NewRootCommand(env)
	root.SetArgs(argv)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var usage *cliutil.UsageError
	if errors.As(err, &usage) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, `Run "dql --help" for usage.`)
		return 2
	}
	var qe *cliutil.QueryError
	if errors.As(err, &qe) {
		fmt.Fprint(stderr, "error: ")
		cliutil.PrintSyntaxError(stderr, qe.Input, qe.Err)
		return 1
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
