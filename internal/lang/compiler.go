package lang

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"pulsec/internal/trace"
)

// CompileOptions configures a single Compile call. Mirrors the teacher's
// options-struct-plus-merge convention: zero-value fields keep the default.
type CompileOptions struct {
	Hooks Hooks

	// ValidateUTF8 is the externally-provided encoding validator spec.md §1
	// requires the core to call rather than own. Defaults to utf8.Valid.
	ValidateUTF8 func([]byte) bool

	Logger *trace.Logger

	EmitDiagnosticsJSON   bool
	EmitBundleJSON        bool
	DiagnosticsOutputPath string
	BundleOutputPath      string
}

func defaultCompileOptions() CompileOptions {
	return CompileOptions{
		ValidateUTF8: utf8.Valid,
	}
}

func mergeCompileOptions(dst *CompileOptions, src CompileOptions) {
	if src.Hooks.OnError != nil {
		dst.Hooks.OnError = src.Hooks.OnError
	}
	if src.Hooks.OnWarning != nil {
		dst.Hooks.OnWarning = src.Hooks.OnWarning
	}
	if src.Hooks.OnNotice != nil {
		dst.Hooks.OnNotice = src.Hooks.OnNotice
	}
	if src.ValidateUTF8 != nil {
		dst.ValidateUTF8 = src.ValidateUTF8
	}
	if src.Logger != nil {
		dst.Logger = src.Logger
	}
	if src.EmitDiagnosticsJSON {
		dst.EmitDiagnosticsJSON = true
	}
	if src.EmitBundleJSON {
		dst.EmitBundleJSON = true
	}
	if src.DiagnosticsOutputPath != "" {
		dst.DiagnosticsOutputPath = src.DiagnosticsOutputPath
	}
	if src.BundleOutputPath != "" {
		dst.BundleOutputPath = src.BundleOutputPath
	}
}

// CompileResult is everything a compile call produces: the finished
// timeline (nil on fatal failure), every diagnostic raised along the way,
// and the optional JSON artifacts mirroring the teacher's bundle/manifest
// emission pattern.
type CompileResult struct {
	Timeline        *Timeline
	Diagnostics     []Diagnostic
	Manifest        *TimelineManifest
	ManifestJSON    []byte
	DiagnosticsJSON []byte
	BundleJSON      []byte
}

// CompileFile reads sourcePath and compiles it.
func CompileFile(sourcePath string, opts *CompileOptions) (*CompileResult, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		diag := Diagnostic{
			Phase:    PhaseEncoding,
			Severity: SeverityError,
			Message:  err.Error(),
		}
		return &CompileResult{Diagnostics: []Diagnostic{diag}}, &DiagnosticsError{Diagnostics: []Diagnostic{diag}}
	}
	return CompileSource(source, opts)
}

// CompileSource compiles source bytes directly. It is a pure function of
// (source, hooks) -> (timeline, diagnostics): no suspension points, no
// internal parallelism, no retained state across calls.
func CompileSource(source []byte, opts *CompileOptions) (result *CompileResult, err error) {
	cfg := defaultCompileOptions()
	if opts != nil {
		mergeCompileOptions(&cfg, *opts)
	}

	view := NewView(source)
	ctx := newContext(view, cfg.Hooks)

	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(fatalSignal); !fatal {
				ctx.diagnostics = append(ctx.diagnostics, internalDiagnostic(r))
			}
		}

		result = &CompileResult{Diagnostics: ctx.diagnostics}
		if !HasErrors(ctx.diagnostics) {
			tl := ctx.tl
			result.Timeline = &tl
			result.Manifest = buildTimelineManifest(&tl)
		} else {
			err = &DiagnosticsError{Diagnostics: ctx.diagnostics}
		}

		if cfg.EmitDiagnosticsJSON || cfg.DiagnosticsOutputPath != "" {
			if b, mErr := json.MarshalIndent(result.Diagnostics, "", "  "); mErr == nil {
				result.DiagnosticsJSON = b
				if cfg.DiagnosticsOutputPath != "" {
					if wErr := os.WriteFile(cfg.DiagnosticsOutputPath, b, 0644); wErr != nil {
						result.Diagnostics = append(result.Diagnostics, Diagnostic{
							Phase: PhaseInternal, Severity: SeverityError,
							Message: fmt.Sprintf("writing diagnostics JSON: %v", wErr),
						})
						if err == nil {
							err = &DiagnosticsError{Diagnostics: result.Diagnostics}
						}
					}
				}
			}
		}

		if cfg.EmitBundleJSON || cfg.BundleOutputPath != "" {
			bundle := BuildCompileBundle(result)
			if b, mErr := json.MarshalIndent(bundle, "", "  "); mErr == nil {
				result.BundleJSON = b
				if cfg.BundleOutputPath != "" {
					if wErr := os.WriteFile(cfg.BundleOutputPath, b, 0644); wErr != nil {
						result.Diagnostics = append(result.Diagnostics, Diagnostic{
							Phase: PhaseInternal, Severity: SeverityError,
							Message: fmt.Sprintf("writing bundle JSON: %v", wErr),
						})
						if err == nil {
							err = &DiagnosticsError{Diagnostics: result.Diagnostics}
						}
					}
				}
			}
		}
		if result.Manifest != nil {
			if b, mErr := json.MarshalIndent(result.Manifest, "", "  "); mErr == nil {
				result.ManifestJSON = b
			}
		}
	}()

	cfg.Logger.Log(trace.ComponentDiagnostics, trace.LogLevelInfo, "compile starting", nil)

	if !cfg.ValidateUTF8(source) {
		ctx.Error(PhaseEncoding, Span{0, len(source)}, "source is not valid UTF-8")
	}

	lx := NewLexer(source)
	compileProgram(ctx, lx)

	finalizeTimeline(&ctx.tl, ctx.globalBPM)

	return
}

func internalDiagnostic(recovered any) Diagnostic {
	return Diagnostic{
		Phase:    PhaseInternal,
		Severity: SeverityError,
		Message:  fmt.Sprintf("internal compiler panic: %v", recovered),
	}
}
