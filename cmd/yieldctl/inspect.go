package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the feature contract of an artifact directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := g.loadBundle(dir)
			if err != nil {
				return err
			}
			defer func() { _ = bundle.Close() }()
			return printBundle(cmd.OutOrStdout(), bundle)
		},
	}
	cmd.Flags().StringVar(&dir, "artifacts", "artifacts", "artifact directory")
	return cmd
}

func printBundle(out io.Writer, b *model.ArtifactBundle) error {
	schema := b.Schema()
	fmt.Fprintf(out, "fingerprint: %s\n", b.Fingerprint())
	fmt.Fprintf(out, "model:       %s\n", b.Predictor().Kind())
	fmt.Fprintf(out, "encoding:    %s\n", schema.Policy())
	fmt.Fprintf(out, "features:    %d\n\n", schema.Len())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tKIND\tRANGE")
	for i, f := range schema.Features() {
		rng := ""
		if f.Kind.IsContinuous() {
			rng = fmt.Sprintf("[%g, %g]", f.Min, f.Max)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, f.Name, f.Kind, rng)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, grp := range schema.Groups() {
		fmt.Fprintf(out, "\ngroup %s: %s", grp.Name, strings.Join(grp.Categories, ", "))
		if grp.Baseline != "" {
			fmt.Fprintf(out, " (baseline %s)", grp.Baseline)
		}
	}
	if len(schema.Groups()) > 0 {
		fmt.Fprintln(out)
	}
	return nil
}

func newVerifyCmd(g *globalFlags) *cobra.Command {
	var dir, expectPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Load an artifact triple and check it against an expected column list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := g.loadBundle(dir)
			if err != nil {
				return err
			}
			defer func() { _ = bundle.Close() }()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "artifacts OK: %d features, fingerprint %s\n", bundle.Schema().Len(), bundle.Fingerprint())

			if expectPath == "" {
				return nil
			}
			declared, err := readColumnList(expectPath)
			if err != nil {
				return err
			}
			report := service.DetectSkew(bundle.Schema(), declared)
			if report.Clean() {
				fmt.Fprintf(out, "no skew against %s\n", expectPath)
				return nil
			}
			fmt.Fprintf(out, "skew against %s: %s\n", expectPath, report)
			return fmt.Errorf("%w: %s", model.ErrSchemaCorrupt, report)
		},
	}
	cmd.Flags().StringVar(&dir, "artifacts", "artifacts", "artifact directory")
	cmd.Flags().StringVar(&expectPath, "expect", "", "file listing the expected feature columns, one per line")
	return cmd
}

// readColumnList reads one column name per line, skipping blanks and # comments.
func readColumnList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cols []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols = append(cols, line)
	}
	return cols, sc.Err()
}
