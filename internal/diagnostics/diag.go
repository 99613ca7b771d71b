package diagnostics

import (
	"errors"

	"github.com/coreman2200/keylight/internal/bounds"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Rejected describes a configuration write that was refused.
func Rejected(op string, err error, evidence map[string]any) Diagnostic {
	d := Diagnostic{
		Severity: Warn,
		Code:     "CONFIG.REJECTED",
		Summary:  op + " rejected",
		Detail:   err.Error(),
		Evidence: evidence,
	}
	if errors.Is(err, bounds.ErrOutOfRange) {
		d.Code = "CONFIG.OUT_OF_RANGE"
		d.LikelyCauses = []string{"row, column, press state, LED, palette index or mode outside the configured matrix"}
		d.SuggestedFixes = []string{"check /health for the matrix size and /dump for current tables"}
	}
	return d
}
