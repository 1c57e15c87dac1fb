package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/internal/cliutil"
)

// storeFlag binds -s/--store on cmd.
func storeFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "store", "s", "", "store name, sqlite file, or postgres schema")
}

func NewStoreCmd(env *cliutil.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Create and maintain document stores",
	}
	cmd.AddCommand(newStoreInitCmd(env), newStoreInfoCmd(env), newStoreOptimizeCmd(env))
	return cmd
}

func newStoreInitCmd(env *cliutil.Env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a document store",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := env.CreateStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintf(env.Stdout, "created store %s (table %s)\n", cliutil.ResolveStoreRef(env.Global, name), st.Table())
			return nil
		},
	}
	storeFlag(cmd, &name)
	return cmd
}

func newStoreInfoCmd(env *cliutil.Env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the table and document count of a store",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Count(cmd.Context())
			if err != nil {
				return err
			}
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, map[string]any{
					"store":     cliutil.ResolveStoreRef(env.Global, name),
					"backend":   env.Global.Backend,
					"table":     st.Table(),
					"documents": n,
				})
			}
			fmt.Fprintf(env.Stdout, "Table: %s\nDocuments: %d\n", st.Table(), n)
			return nil
		},
	}
	storeFlag(cmd, &name)
	return cmd
}

func newStoreOptimizeCmd(env *cliutil.Env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run backend maintenance",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Optimize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, "store optimized")
			return nil
		},
	}
	storeFlag(cmd, &name)
	return cmd
}
