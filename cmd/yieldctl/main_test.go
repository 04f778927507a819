package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/domain/model"
)

const manifestYAML = `
target: Yield
columns:
  - name: Region
    kind: categorical
  - name: Rainfall_mm
    kind: continuous
    min: 0
    max: 500
    aliases: [rainfall_mm]
`

func writeFixture(t *testing.T) (dataPath, manifestPath string) {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("Region,Rainfall_mm,Yield\n")
	for i := 0; i < 60; i++ {
		region := []string{"East", "North"}[i%2]
		rain := float64(50 + (i*29)%400)
		effect := 0.0
		if region == "North" {
			effect = 1
		}
		fmt.Fprintf(&b, "%s,%g,%g\n", region, rain, 2+0.01*rain+effect)
	}
	dataPath = filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(b.String()), 0o644))

	manifestPath = filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestYAML), 0o644))
	return dataPath, manifestPath
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func trainFixture(t *testing.T) string {
	t.Helper()
	data, manifest := writeFixture(t)
	artifacts := filepath.Join(t.TempDir(), "artifacts")

	out, _, err := run(t, "train", "--data", data, "--manifest", manifest, "--out", artifacts,
		"--model", "linear", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "best: linear")
	assert.Contains(t, out, "fingerprint: ")
	return artifacts
}

func TestTrainAndInspect(t *testing.T) {
	artifacts := trainFixture(t)

	out, _, err := run(t, "inspect", "--artifacts", artifacts, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "encoding:    drop_first")
	assert.Contains(t, out, "features:    2")
	assert.Contains(t, out, "Rainfall_mm")
	assert.Contains(t, out, "Region_North")
	assert.Contains(t, out, "group Region: East, North (baseline East)")
}

func TestVerify(t *testing.T) {
	artifacts := trainFixture(t)
	dir := t.TempDir()

	clean := filepath.Join(dir, "clean.txt")
	require.NoError(t, os.WriteFile(clean, []byte("# columns\nRainfall_mm\n\nRegion_North\n"), 0o644))
	out, _, err := run(t, "verify", "--artifacts", artifacts, "--expect", clean, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "no skew")

	drifted := filepath.Join(dir, "drifted.txt")
	require.NoError(t, os.WriteFile(drifted, []byte("Rainfall_mm\nRegion_North\nRegion_South\n"), 0o644))
	out, _, err = run(t, "verify", "--artifacts", artifacts, "--expect", drifted, "--log-level", "error")
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrSchemaCorrupt)
	assert.Contains(t, out, "Region_South")
}

func TestVerify_MissingArtifacts(t *testing.T) {
	_, _, err := run(t, "verify", "--artifacts", t.TempDir(), "--log-level", "error")
	require.Error(t, err)
}

func TestPredict(t *testing.T) {
	artifacts := trainFixture(t)

	out, _, err := run(t, "predict", "--artifacts", artifacts, "--log-level", "error",
		"--input", `{"rainfall_mm": 200, "Region": "North"}`)
	require.NoError(t, err)

	var resp dto.PredictionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, 5.0, resp.PredictedYield, 0.01)
	assert.Equal(t, "High", resp.ConfidenceTier)
	assert.Equal(t, "linear", resp.ModelKind)
	assert.Nil(t, resp.PredictionID)
}

func TestPredict_Rejected(t *testing.T) {
	artifacts := trainFixture(t)

	_, errOut, err := run(t, "predict", "--artifacts", artifacts, "--log-level", "error",
		"--input", `{"rainfall_mm": 200, "Region": "South"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownCategoryValue)
	assert.Contains(t, errOut, "unknown_category_value")

	_, _, err = run(t, "predict", "--artifacts", artifacts, "--input", `not json`)
	require.Error(t, err)
}

func TestTrain_BadEncoding(t *testing.T) {
	data, _ := writeFixture(t)
	_, _, err := run(t, "train", "--data", data, "--encoding", "sparse", "--out", t.TempDir())
	require.Error(t, err)
}

func TestMigrate_Args(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, _, err := run(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--database-url")

	_, _, err = run(t, "migrate", "sideways", "--database-url", "postgres://localhost/yield")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown direction")
}
