package service

import (
	"fmt"
	"strings"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// SkewReport describes how a declared feature list diverges from a schema.
type SkewReport struct {
	Missing       []string // in the schema, not declared
	Unexpected    []string // declared, not in the schema
	OrderMismatch bool     // same names, different positions
	FirstMismatch int      // first differing position, -1 when none
}

// Clean reports whether the declared list matches the schema exactly.
func (r SkewReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0 && !r.OrderMismatch
}

func (r SkewReport) String() string {
	if r.Clean() {
		return "no skew"
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(r.Missing, ", "))
	}
	if len(r.Unexpected) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(r.Unexpected, ", "))
	}
	if r.OrderMismatch {
		parts = append(parts, fmt.Sprintf("order differs from position %d", r.FirstMismatch))
	}
	return strings.Join(parts, "; ")
}

// DetectSkew compares a declared feature list, such as the column list a
// client or predictor was built against, with the schema.
func DetectSkew(schema *model.Schema, declared []string) SkewReport {
	want := schema.Names()
	report := SkewReport{FirstMismatch: -1}

	declaredSet := make(map[string]bool, len(declared))
	for _, name := range declared {
		declaredSet[name] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, name := range want {
		wantSet[name] = true
		if !declaredSet[name] {
			report.Missing = append(report.Missing, name)
		}
	}
	for _, name := range declared {
		if !wantSet[name] {
			report.Unexpected = append(report.Unexpected, name)
		}
	}

	for i := 0; i < len(want) && i < len(declared); i++ {
		if want[i] != declared[i] {
			report.FirstMismatch = i
			break
		}
	}
	if report.FirstMismatch < 0 && len(want) != len(declared) {
		report.FirstMismatch = min(len(want), len(declared))
	}
	report.OrderMismatch = len(report.Missing) == 0 && len(report.Unexpected) == 0 && report.FirstMismatch >= 0
	return report
}

// CheckSkew returns ErrSchemaCorrupt describing any divergence.
func CheckSkew(schema *model.Schema, declared []string) error {
	if r := DetectSkew(schema, declared); !r.Clean() {
		return fmt.Errorf("%w: %s", model.ErrSchemaCorrupt, r)
	}
	return nil
}
