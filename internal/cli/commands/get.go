package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/internal/cliutil"
)

func NewGetCmd(env *cliutil.Env) *cobra.Command {
	var name, id string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a document by id",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return cliutil.Usagef("missing --id")
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

			doc, err := st.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if format == cliutil.FormatText {
				fmt.Fprintln(env.Stdout, string(doc.Data))
				return nil
			}
			return cliutil.Print(env.Stdout, format, cliutil.DecodeDocument(doc.Data))
		},
	}
	storeFlag(cmd, &name)
	cmd.Flags().StringVar(&id, "id", "", "document id")
	return cmd
}
