package main

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/neurlang/epochtrainer/store"
)

func newRunsCmd() *cobra.Command {
	var ledger string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(ledger, nil)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			runs, err := st.ListRuns(ctx)
			if err != nil {
				return errors.Wrap(err, "list runs")
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-6s  %-9s  %s\n", "ID", "EPOCHS", "COMPLETED", "CREATED")
			for _, run := range runs {
				fmt.Fprintf(out, "%-36s  %-6d  %-9d  %s\n", run.ID, run.HyperParameters.EpochCount, run.Completed,
					run.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			epochs, err := st.Epochs(ctx)
			if err != nil {
				return errors.Wrap(err, "list progress")
			}
			done, err := st.Completed(ctx)
			if err != nil {
				return errors.Wrap(err, "list completions")
			}
			indexes := make([]int, 0, len(epochs))
			for index := range epochs {
				indexes = append(indexes, index)
			}
			sort.Ints(indexes)

			fmt.Fprintf(out, "\n%-6s  %-6s  %s\n", "INDEX", "EPOCH", "DONE")
			for _, index := range indexes {
				fmt.Fprintf(out, "%-6d  %-6d  %t\n", index, epochs[index], done[index])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ledger, "ledger", "runs.db", "sqlite ledger path")
	return cmd
}
