package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/application/usecase"
	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
	"github.com/cropyield/yield-service/internal/infrastructure/artifact"
)

func newPredictCmd(g *globalFlags) *cobra.Command {
	var (
		dir        string
		input      string
		thresholds = service.DefaultThresholds()
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one request through the serving pipeline offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := thresholds.Validate(); err != nil {
				return err
			}
			var inputs map[string]any
			dec := json.NewDecoder(bytes.NewReader([]byte(input)))
			dec.UseNumber()
			if err := dec.Decode(&inputs); err != nil {
				return fmt.Errorf("--input is not a JSON object: %w", err)
			}

			bundle, err := g.loadBundle(dir)
			if err != nil {
				return err
			}
			defer func() { _ = bundle.Close() }()
			logger := g.logger()
			classifier := service.NewConfidenceClassifier(thresholds)
			uc := usecase.NewPredictYield(artifact.NewHolder(bundle), service.NewInferenceService(classifier), nil, nil, logger)

			resp, err := uc.Execute(cmd.Context(), dto.PredictRequest{Inputs: inputs})
			if err != nil {
				if fes, ok := model.AsFieldErrors(err); ok {
					for _, fe := range fes {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%s)\n", fe.Field, fe.Message, fe.Code)
					}
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "artifacts", "artifacts", "artifact directory")
	f.StringVar(&input, "input", "", `request JSON, e.g. '{"Rainfall_mm": 120, "Region": "East"}'`)
	f.Float64Var(&thresholds.Low, "low", thresholds.Low, "Low confidence threshold")
	f.Float64Var(&thresholds.High, "high", thresholds.High, "Medium confidence threshold")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
