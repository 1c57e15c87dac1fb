package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/internal/cliutil"
)

func NewSearchCmd(env *cliutil.Env) *cobra.Command {
	var name, after string
	var limit int
	var explain bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a store",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := st.Search(cmd.Context(), input, dql.SearchOptions{Limit: limit, After: after, Explain: explain})
			if err != nil {
				return queryFailure(input, err)
			}

			if format != cliutil.FormatText {
				docs := make([]any, len(res.Documents))
				for i, d := range res.Documents {
					docs[i] = cliutil.DecodeDocument(d.Data)
				}
				out := map[string]any{"documents": docs}
				if res.NextCursor != "" {
					out["next_cursor"] = res.NextCursor
				}
				if res.Explain != nil {
					out["explain"] = res.Explain
				}
				return cliutil.Print(env.Stdout, format, out)
			}

			if res.Explain != nil {
				fmt.Fprintln(env.Stdout, "=== Query Plan ===")
				for _, step := range res.Explain.Steps {
					fmt.Fprintf(env.Stdout, "  %s\n", step)
				}
				fmt.Fprintln(env.Stdout, "\n=== SQL ===")
				fmt.Fprintln(env.Stdout, res.Explain.SQL)
				fmt.Fprintf(env.Stdout, "args: %v\n", res.Explain.Args)
				fmt.Fprintln(env.Stdout, "\n=== Results ===")
			}
			for _, d := range res.Documents {
				fmt.Fprintln(env.Stdout, string(d.Data))
			}
			fmt.Fprintf(env.Stdout, "--- %d results", len(res.Documents))
			if res.NextCursor != "" {
				fmt.Fprintf(env.Stdout, ", more available (cursor: %s)", res.NextCursor)
			}
			fmt.Fprintln(env.Stdout, " ---")
			return nil
		},
	}
	storeFlag(cmd, &name)
	cmd.Flags().IntVar(&limit, "limit", 20, "max results")
	cmd.Flags().StringVar(&after, "after", "", "cursor for pagination")
	cmd.Flags().BoolVar(&explain, "explain", false, "show query plan and SQL")
	return cmd
}

func NewCountCmd(env *cliutil.Env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "count [query]",
		Short: "Count documents, optionally only those matching a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()

			var n int64
			if len(args) == 0 {
				n, err = st.Count(cmd.Context())
			} else {
				input := queryArg(args)
				n, err = st.CountMatching(cmd.Context(), input)
				if err != nil {
					return queryFailure(input, err)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, n)
			return nil
		},
	}
	storeFlag(cmd, &name)
	return cmd
}
