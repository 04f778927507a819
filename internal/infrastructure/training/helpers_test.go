package training_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/infrastructure/training"
)

var regions = []string{"East", "North", "West"}

var regionEffect = map[string]float64{"East": 0, "North": 0.5, "West": -0.25}

// syntheticCSV writes n rows whose target is an exact linear function of the
// encoded features.
func syntheticCSV(n int) string {
	var b strings.Builder
	b.WriteString("Region,Rainfall_mm,Temperature_Celsius,Irrigation_Used,Yield_tons_per_hectare\n")
	for i := 0; i < n; i++ {
		region := regions[i%len(regions)]
		rain := float64(100 + (i*37)%400)
		temp := float64(5 + (i*13)%30)
		irrigated := i % 2
		irrigation := "False"
		if irrigated == 1 {
			irrigation = "True"
		}
		yield := 1 + 0.01*rain + 0.1*temp + 0.75*float64(irrigated) + regionEffect[region]
		fmt.Fprintf(&b, "%s,%g,%g,%s,%g\n", region, rain, temp, irrigation, yield)
	}
	return b.String()
}

const testManifest = `
target: Yield_tons_per_hectare
encoding: drop_first
columns:
  - name: Region
    kind: categorical
    aliases: [region]
  - name: Rainfall_mm
    kind: continuous
    min: 0
    max: 500
  - name: Temperature_Celsius
    kind: continuous
    min: -10
    max: 50
  - name: Irrigation_Used
    kind: binary
`

func loadFixture(t *testing.T, n int) (*training.Frame, *training.Manifest) {
	t.Helper()
	frame, err := training.ReadCSV(strings.NewReader(syntheticCSV(n)))
	require.NoError(t, err)
	m, err := training.ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	return frame, m
}
