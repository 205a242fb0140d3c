package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "train_squareroot",
		Short:        "Train square root networks with the epoch trainer",
		SilenceUsage: true,
	}
	root.AddCommand(
		newTrainCmd(),
		newRunsCmd(),
	)
	return root
}
