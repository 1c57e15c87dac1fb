package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/internal/cliutil"
)

func fieldFlags(cmd *cobra.Command, field, where *string) {
	cmd.Flags().StringVar(field, "field", "", "dotted field name (required)")
	cmd.Flags().StringVarP(where, "where", "w", "", "only documents matching this query")
}

func queryFailure(input string, err error) error {
	if dql.IsKind(err, dql.ErrQueryParse) {
		return &cliutil.QueryError{Input: input, Err: err}
	}
	return err
}

func NewStatsCmd(env *cliutil.Env) *cobra.Command {
	var name, field, where string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the numeric values of a field",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				return cliutil.Usagef("missing --field")
			}
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context(), field, where)
			if err != nil {
				return queryFailure(where, err)
			}
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, stats)
			}
			fmt.Fprintf(env.Stdout, "Statistics for field '%s':\n", stats.Field)
			fmt.Fprintf(env.Stdout, "  Count: %d\n", stats.Count)
			if stats.Min != nil {
				fmt.Fprintf(env.Stdout, "  Min: %.2f\n", *stats.Min)
				fmt.Fprintf(env.Stdout, "  Max: %.2f\n", *stats.Max)
				fmt.Fprintf(env.Stdout, "  Avg: %.2f\n", *stats.Avg)
			}
			return nil
		},
	}
	storeFlag(cmd, &name)
	fieldFlags(cmd, &field, &where)
	return cmd
}

func NewValuesCmd(env *cliutil.Env) *cobra.Command {
	var name, field, where string
	var top int
	cmd := &cobra.Command{
		Use:   "values",
		Short: "List the most frequent values of a field",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				return cliutil.Usagef("missing --field")
			}
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()

			values, err := st.Values(cmd.Context(), field, where, top)
			if err != nil {
				return queryFailure(where, err)
			}
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, values)
			}
			fmt.Fprintf(env.Stdout, "Top values for field '%s':\n", field)
			for _, v := range values {
				fmt.Fprintf(env.Stdout, "  %s: %d\n", v.Value, v.Count)
			}
			return nil
		},
	}
	storeFlag(cmd, &name)
	fieldFlags(cmd, &field, &where)
	cmd.Flags().IntVar(&top, "top", dql.DefaultTopValues, "number of values to return")
	return cmd
}
