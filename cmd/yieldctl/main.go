// Command yieldctl trains, inspects and exercises yield model artifacts
// offline, without starting the service. It also manages the audit schema.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/infrastructure/artifact"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
	"github.com/cropyield/yield-service/pkg/observability"
)

type globalFlags struct {
	logLevel  string
	logFormat string
	onnxLib   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:          "yieldctl",
		Short:        "Offline tooling for crop yield model artifacts",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")
	root.PersistentFlags().StringVar(&g.onnxLib, "onnxruntime-lib", os.Getenv("ONNXRUNTIME_LIB"), "path to the onnxruntime shared library")

	root.AddCommand(
		newTrainCmd(g),
		newInspectCmd(g),
		newVerifyCmd(g),
		newPredictCmd(g),
		newMigrateCmd(),
	)
	return root
}

func (g *globalFlags) logger() *slog.Logger {
	return observability.InitLogger(observability.LogConfig{
		Level:   g.logLevel,
		Format:  g.logFormat,
		Service: "yieldctl",
		Output:  os.Stderr,
	})
}

func (g *globalFlags) loadBundle(dir string) (*model.ArtifactBundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("--artifacts is required")
	}
	loader := artifact.NewLoader(artifact.NewStore(dir), predictor.NewRegistry(), g.onnxLib, g.logger())
	return loader.Load()
}
