package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/internal/cliutil"
)

func NewPutCmd(env *cliutil.Env) *cobra.Command {
	var name, file string
	var batchSize int
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store JSON documents, one per line",
		Long: `Reads JSON lines from stdin or --file and upserts each document.
Documents without a string "id" get a generated UUID. gzip and zstd
input is decompressed automatically.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return cliutil.Usagef("--batch-size must be positive")
			}
			ctx := cmd.Context()
			st, err := env.OpenStore(ctx, name)
			if err != nil {
				return err
			}
			defer st.Close()

			in, err := cliutil.OpenInput(env.Stdin, file)
			if err != nil {
				return dql.Wrap(dql.ErrIO, "open input", err)
			}
			defer in.Close()

			total := 0
			batch := dql.NewBatch()
			flush := func() error {
				if batch.Empty() {
					return nil
				}
				ids, err := batch.Execute(ctx, st)
				if err != nil {
					return err
				}
				for _, id := range ids {
					env.Log.Debug().Str("id", id).Msg("stored")
				}
				total += len(ids)
				batch = dql.NewBatch()
				return nil
			}
			err = cliutil.ScanLines(in, func(line []byte) error {
				batch.Put(line)
				if batch.Len() >= batchSize {
					return flush()
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "put %d\n", total)
			return nil
		},
	}
	storeFlag(cmd, &name)
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON lines file, - for stdin")
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "documents per transaction")
	return cmd
}
