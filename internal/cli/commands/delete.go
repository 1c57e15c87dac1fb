package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/internal/cliutil"
)

func NewDeleteCmd(env *cliutil.Env) *cobra.Command {
	var name, where string
	var ids []string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete documents by id or by query",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 && where == "" {
				return cliutil.Usagef("either --id or --where is required")
			}
			if len(ids) > 0 && where != "" {
				return cliutil.Usagef("--id and --where are mutually exclusive")
			}
			st, err := env.OpenStore(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer st.Close()

			if where != "" {
				n, err := st.DeleteWhere(cmd.Context(), where)
				if err != nil {
					return queryFailure(where, err)
				}
				fmt.Fprintf(env.Stdout, "deleted %d documents\n", n)
				return nil
			}
			for _, id := range ids {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(env.Stdout, "deleted %s\n", id)
			}
			return nil
		},
	}
	storeFlag(cmd, &name)
	cmd.Flags().StringSliceVar(&ids, "id", nil, "document id (repeatable)")
	cmd.Flags().StringVarP(&where, "where", "w", "", "delete every document matching this query")
	return cmd
}
