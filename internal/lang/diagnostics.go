package lang

import "fmt"

// Phase tags every diagnostic with the compilation stage that raised it.
type Phase string

const (
	PhaseEncoding  Phase = "ENCODING"
	PhaseLexical   Phase = "LEXICAL"
	PhaseSyntactic Phase = "SYNTACTIC"
	PhaseSemantic  Phase = "SEMANTIC"
	PhaseInternal  Phase = "INTERNAL"
)

// Severity is the diagnostic's blocking weight. Only SeverityError is fatal.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNotice  Severity = "notice"
)

// Diagnostic is a single reported finding, already stamped with a
// human-readable position derived from its span.
type Diagnostic struct {
	Phase     Phase
	Severity  Severity
	Message   string
	Span      Span
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Phase, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Phase, d.Message)
}

// DiagnosticsError wraps every diagnostic collected during a failed compile.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].Error()
}

// HasErrors reports whether any diagnostic in diags is fatal.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ReporterHook is the shape shared by all three dispatch hooks: a rendered
// message plus enough context (phase, source, span) for an external renderer
// to print something useful. None of them return a value — error's fatality
// is expressed by the Context unwinding via panic/recover after invoking it,
// not by a hook return code.
type ReporterHook func(phase Phase, src View, span Span, message string)

// Hooks is the minimal output capability set threaded through a compile
// call. A nil hook is simply not invoked; diagnostics still accumulate on
// the Context regardless; callers that only want CompileResult.Diagnostics
// can leave every hook nil.
type Hooks struct {
	OnError   ReporterHook
	OnWarning ReporterHook
	OnNotice  ReporterHook
}

func (ctx *Context) stampPosition(d *Diagnostic) {
	line, col := ctx.src.Position(d.Span.Start)
	endLine, endCol := ctx.src.Position(d.Span.End)
	d.Line, d.Column = line, col
	d.EndLine, d.EndColumn = endLine, endCol
}

// fatalSignal is the sentinel panic payload that unwinds the parser after a
// fatal diagnostic. It carries no data: the diagnostic itself was already
// recorded and dispatched before the panic, exactly once, at the call site.
type fatalSignal struct{}

// Error records a SeverityError diagnostic, invokes the error hook, and
// unwinds control flow to the top-level Compile call. It never returns.
func (ctx *Context) Error(phase Phase, span Span, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	diag := Diagnostic{Phase: phase, Severity: SeverityError, Message: msg, Span: span}
	ctx.stampPosition(&diag)
	ctx.diagnostics = append(ctx.diagnostics, diag)
	if ctx.hooks.OnError != nil {
		ctx.hooks.OnError(phase, ctx.src, span, msg)
	}
	panic(fatalSignal{})
}

// Warning records a non-fatal diagnostic and returns normally.
func (ctx *Context) Warning(phase Phase, span Span, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	diag := Diagnostic{Phase: phase, Severity: SeverityWarning, Message: msg, Span: span}
	ctx.stampPosition(&diag)
	ctx.diagnostics = append(ctx.diagnostics, diag)
	if ctx.hooks.OnWarning != nil {
		ctx.hooks.OnWarning(phase, ctx.src, span, msg)
	}
}

// Notice records an informational diagnostic (used by dbg) and returns
// normally; the rendered message already carries any structured payload.
func (ctx *Context) Notice(phase Phase, span Span, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	diag := Diagnostic{Phase: phase, Severity: SeverityNotice, Message: msg, Span: span}
	ctx.stampPosition(&diag)
	ctx.diagnostics = append(ctx.diagnostics, diag)
	if ctx.hooks.OnNotice != nil {
		ctx.hooks.OnNotice(phase, ctx.src, span, msg)
	}
}
