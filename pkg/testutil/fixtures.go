package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed values for deterministic testing.
var (
	TestPredictionID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestPredictionID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestPredictionID3 = uuid.MustParse("00000000-0000-0000-0000-000000000003")

	// TestFingerprint is a syntactically valid schema fingerprint.
	TestFingerprint = "4f7c1e0d9a3b5c2e8f6a1d4b7c0e3f9a2b5d8c1e4f7a0b3d6c9e2f5a8b1c4d7e"

	TestTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
)
