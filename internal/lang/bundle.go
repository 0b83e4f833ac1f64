package lang

// CompileBundle is the JSON-serializable envelope around a CompileResult,
// grounded on the teacher's bundle.go shape (schema version, summary
// counts, diagnostics, manifest) adapted to carry a timeline manifest
// instead of a ROM manifest.
type CompileBundle struct {
	SchemaVersion int               `json:"schema_version"`
	Success       bool              `json:"success"`
	Summary       CompileSummary    `json:"summary"`
	Diagnostics   []Diagnostic      `json:"diagnostics"`
	Manifest      *TimelineManifest `json:"manifest,omitempty"`
}

type CompileSummary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`
}

func BuildCompileBundle(result *CompileResult) CompileBundle {
	b := CompileBundle{SchemaVersion: 1}
	if result == nil {
		return b
	}
	b.Diagnostics = result.Diagnostics
	b.Manifest = result.Manifest
	b.Success = !HasErrors(result.Diagnostics)
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case SeverityError:
			b.Summary.ErrorCount++
		case SeverityWarning:
			b.Summary.WarningCount++
		case SeverityNotice:
			b.Summary.InfoCount++
		}
	}
	return b
}
