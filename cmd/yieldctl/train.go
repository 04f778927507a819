package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/internal/infrastructure/artifact"
	"github.com/cropyield/yield-service/internal/infrastructure/training"
)

func newTrainCmd(g *globalFlags) *cobra.Command {
	opts := training.DefaultOptions()
	var (
		dataPath     string
		outDir       string
		manifestPath string
		encoding     string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit candidate models on a CSV and write the best as an artifact triple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if encoding != "" {
				policy, err := valueobject.EncodingPolicyFromString(encoding)
				if err != nil {
					return err
				}
				opts.Encoding = policy
			}

			manifest, err := training.DefaultManifest()
			if manifestPath != "" {
				manifest, err = training.LoadManifest(manifestPath)
			}
			if err != nil {
				return err
			}

			frame, err := training.LoadCSV(dataPath)
			if err != nil {
				return fmt.Errorf("load training data: %w", err)
			}

			result, err := training.NewTrainer(opts, g.logger()).Train(cmd.Context(), frame, manifest)
			if err != nil {
				return err
			}

			blobs, err := artifact.Encode(result.Bundle, result.Metrics)
			if err != nil {
				return err
			}
			if err := artifact.NewStore(outDir).Write(blobs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d train, %d test\n\n", result.TrainRows, result.TestRows)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tMSE\tR2\tTIME")
			for _, c := range result.Candidates {
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", c.Kind, c.MSE, c.R2, c.Duration.Round(time.Millisecond))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nbest: %s\nfingerprint: %s\nwritten to: %s\n",
				result.Bundle.Predictor().Kind(), result.Bundle.Fingerprint(), outDir)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "training CSV with a header row")
	f.StringVar(&outDir, "out", "artifacts", "artifact directory to write")
	f.StringVar(&manifestPath, "manifest", "", "YAML feature manifest (built-in crop manifest when empty)")
	f.StringVar(&encoding, "encoding", "", "categorical encoding: drop_first or full (manifest value when empty)")
	f.StringVar(&opts.Model, "model", opts.Model, "auto, linear, tree or forest")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed for the split and the forest")
	f.Float64Var(&opts.TestSize, "test-size", opts.TestSize, "held-out fraction")
	f.IntVar(&opts.Trees, "trees", opts.Trees, "forest size")
	f.IntVar(&opts.Tree.MaxDepth, "max-depth", opts.Tree.MaxDepth, "tree depth limit")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
