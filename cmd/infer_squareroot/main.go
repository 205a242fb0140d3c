package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/neurlang/epochtrainer/datasets"
	"github.com/neurlang/epochtrainer/datasets/squareroot"
	"github.com/neurlang/epochtrainer/learning/avx"
	"github.com/neurlang/epochtrainer/net/feedforward"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var size, show int
	cmd := &cobra.Command{
		Use:          "infer_squareroot MODEL...",
		Short:        "Evaluate trained square root networks",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			nets := make([]*feedforward.FeedforwardNetwork, len(args))
			for i, path := range args {
				nets[i] = new(feedforward.FeedforwardNetwork)
				if err := nets[i].ReadCompressedWeightsFromFile(path); err != nil {
					return errors.Wrapf(err, "load %s", path)
				}
			}
			return evaluate(cmd.Context(), cmd.OutOrStdout(), args, nets, squareroot.New(size), show)
		},
	}
	cmd.Flags().IntVar(&size, "size", squareroot.Medium, "number of evaluated samples")
	cmd.Flags().IntVar(&show, "show", 5, "samples printed per network")
	return cmd
}

func evaluate(ctx context.Context, out io.Writer, names []string, nets []*feedforward.FeedforwardNetwork, data datasets.Dataset, show int) error {
	r := datasets.NewMemoryReader(data, 0, false)
	for i, net := range nets {
		mse, err := avx.Evaluate(ctx, nets[i:i+1], r, runtime.NumCPU())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: mean squared error %.6f\n", names[i], mse)
		for j := 0; j < show && j < len(data); j++ {
			s := data[j*len(data)/show]
			got := net.Infer(s.Input)[0]
			fmt.Fprintf(out, "  sqrt(%.4f) = %.4f, predicted %.4f (off by %.4f)\n",
				s.Input[0], s.Output[0], got, math.Abs(got-s.Output[0]))
		}
	}
	return nil
}
