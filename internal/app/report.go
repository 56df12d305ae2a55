package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/toolocean/internal/validate"
)

// reportEntry is the record of a single input in the sidecar report.
type reportEntry struct {
	Input        string                `json:"input"`
	Output       string                `json:"output,omitempty"`
	InputSHA256  string                `json:"input_sha256"`
	OutputSHA256 string                `json:"output_sha256,omitempty"`
	Succeeded    bool                  `json:"succeeded"`
	AlreadyValid bool                  `json:"already_valid"`
	Cached       bool                  `json:"cached"`
	AppliedRules []string              `json:"applied_rules"`
	Changes      []string              `json:"changes"`
	Reason       string                `json:"reason,omitempty"`
	Violations   []validate.FieldError `json:"schema_violations,omitempty"`
}

// reportMeta captures run details that aid reproducibility.
type reportMeta struct {
	RunID         string    `json:"run_id"`
	EngineVersion string    `json:"engine_version"`
	Fingerprint   string    `json:"fingerprint"`
	Rules         []string  `json:"rules"`
	BuildVersion  string    `json:"build_version"`
	BuildCommit   string    `json:"build_commit"`
	Schema        string    `json:"schema,omitempty"`
	Inputs        int       `json:"inputs"`
	GeneratedAt   time.Time `json:"generated_at"`
	DurationMS    int64     `json:"duration_ms"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildReportEntries(outcomes []Outcome) []reportEntry {
	out := make([]reportEntry, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, reportEntry{
			Input:        o.Input,
			Output:       o.Output,
			InputSHA256:  o.InputSHA256,
			OutputSHA256: o.OutputSHA256,
			Succeeded:    o.Result.Succeeded,
			AlreadyValid: o.Result.AlreadyValid,
			Cached:       o.Cached,
			AppliedRules: o.Result.AppliedRules,
			Changes:      o.Result.Changes,
			Reason:       o.Result.Reason,
			Violations:   o.Violations,
		})
	}
	return out
}

// marshalReportJSON encodes the machine-readable sidecar report.
func marshalReportJSON(meta reportMeta, entries []reportEntry) ([]byte, error) {
	payload := struct {
		Meta    reportMeta    `json:"meta"`
		Results []reportEntry `json:"results"`
	}{Meta: meta, Results: entries}
	return json.MarshalIndent(payload, "", "  ")
}

func writeReport(path string, meta reportMeta, entries []reportEntry) error {
	b, err := marshalReportJSON(meta, entries)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report dir: %w", err)
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
