package lang

// Context is the compilation-scoped mutable state threaded through the
// parser/evaluator: symbol tables, global meta, the time cursor, and the
// accumulating timeline. It is created once per compile call and consumed
// at the end; sequences are values copied in and out of it, never aliased.
type Context struct {
	src View

	symbols   map[string]symbolKind
	channels  map[string]uint8
	constants map[string]float64
	chains    map[string]Sequence

	globalBPM  uint64
	globalNote uint64

	time Unit
	tl   Timeline

	hooks       Hooks
	diagnostics []Diagnostic
}

type symbolKind int

const (
	symbolChannel symbolKind = iota
	symbolConstant
	symbolChain
)

func newContext(src View, hooks Hooks) *Context {
	return &Context{
		src:       src,
		symbols:   make(map[string]symbolKind),
		channels:  make(map[string]uint8),
		constants: make(map[string]float64),
		chains:    make(map[string]Sequence),
		hooks:     hooks,
	}
}

func (ctx *Context) checkSymbol(name string, span Span) {
	if _, exists := ctx.symbols[name]; exists {
		ctx.Error(PhaseSemantic, span, "redefinition of %q", name)
	}
}

func (ctx *Context) declareChannel(name string, ch uint8, span Span) {
	ctx.checkSymbol(name, span)
	ctx.symbols[name] = symbolChannel
	ctx.channels[name] = ch
}

func (ctx *Context) declareConstant(name string, v float64, span Span) {
	ctx.checkSymbol(name, span)
	ctx.symbols[name] = symbolConstant
	ctx.constants[name] = v
}

func (ctx *Context) declareChain(name string, seq Sequence, span Span) {
	ctx.checkSymbol(name, span)
	ctx.symbols[name] = symbolChain
	ctx.chains[name] = seq
}

// toUint coerces a literal_expr result to an unsigned integer, truncating
// toward zero per the resolved open question in DESIGN.md. Negative values
// clamp to zero rather than wrapping, since channels/reps/bpm have no
// meaningful negative representation.
func toUint(v float64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func maxUnit(a, b Unit) Unit {
	if a > b {
		return a
	}
	return b
}

// ---- literal_expr grammar ----------------------------------------------
//
// Binding powers (lower = looser): ADD/SUB = 10, MUL/DIV = 20. LEN/BEAT/SKIP
// are prefix count operators that switch into the sequence grammar for
// their operand, then return to the literal grammar as a complete primary —
// they never participate in the infix loop themselves.

func literalInfixPower(k TokenKind) (lbp, rbp int, ok bool) {
	switch k {
	case OP_ADD, OP_SUB:
		return 10, 11, true
	case OP_MUL, OP_DIV:
		return 20, 21, true
	default:
		return 0, 0, false
	}
}

func literalExpr(ctx *Context, lx *Lexer, bp int) float64 {
	left := literalPrimary(ctx, lx)
	for {
		tok := lx.peek
		lbp, rbp, ok := literalInfixPower(tok.Kind)
		if !ok || lbp < bp {
			return left
		}
		lx.next(ctx)
		right := literalExpr(ctx, lx, rbp)
		switch tok.Kind {
		case OP_ADD:
			left += right
		case OP_SUB:
			left -= right
		case OP_MUL:
			left *= right
		case OP_DIV:
			if right == 0 {
				ctx.Error(PhaseSemantic, tok.Span, "division by zero")
			}
			left /= right
		}
	}
}

// literalPrimary parses a single numeric primary, including the three
// prefix count operators (len/beat/skip), each of which recurses into
// sequenceExpr for its operand.
func literalPrimary(ctx *Context, lx *Lexer) float64 {
	tok := lx.peek
	switch tok.Kind {
	case INT:
		lx.next(ctx)
		return float64(tok.Int)
	case IDENT:
		lx.next(ctx)
		v, ok := ctx.constants[tok.Lit]
		if !ok {
			ctx.Error(PhaseSemantic, tok.Span, "undefined constant %q", tok.Lit)
		}
		return v
	case KW_BPM:
		lx.next(ctx)
		return float64(ctx.globalBPM)
	case KW_NOTE:
		lx.next(ctx)
		return float64(ctx.globalNote)
	case OP_LEN:
		lx.next(ctx)
		seq := sequenceExpr(ctx, lx, 0)
		return float64(Len(seq))
	case BEAT:
		lx.next(ctx)
		seq := sequenceExpr(ctx, lx, 0)
		return float64(Beats(seq))
	case SKIP:
		lx.next(ctx)
		seq := sequenceExpr(ctx, lx, 0)
		return float64(Skips(seq))
	case LPAREN:
		lx.next(ctx)
		v := literalExpr(ctx, lx, 0)
		lx.expect(ctx, isKind(RPAREN), "expected ')'")
		lx.next(ctx)
		return v
	default:
		ctx.Error(PhaseSyntactic, tok.Span, "expected a numeric expression")
		panic("unreachable")
	}
}

func collectLiteralPrimaries(ctx *Context, lx *Lexer) []float64 {
	var out []float64
	for canStartLiteralPrimary(lx.peek.Kind) {
		out = append(out, literalPrimary(ctx, lx))
	}
	if len(out) == 0 {
		ctx.Error(PhaseSyntactic, lx.peek.Span, "map requires at least one note value")
	}
	return out
}

// ---- sequence_expr grammar ----------------------------------------------
//
// Binding powers (lower = looser): CHAIN/MAP/DBG = 10, CAR/CDR = 20,
// CAT/OR/AND/XOR/ROTL/ROTR/REP/BPM = 30, REV/INVERT (prefix) = 40.

func sequenceExpr(ctx *Context, lx *Lexer, bp int) Sequence {
	left := sequencePrimary(ctx, lx)
	for {
		tok := lx.peek
		switch tok.Kind {
		case OP_CAT, OP_OR, OP_AND, OP_XOR:
			if 30 < bp {
				return left
			}
			lx.next(ctx)
			right := sequenceExpr(ctx, lx, 31)
			switch tok.Kind {
			case OP_CAT:
				left = Cat(left, right)
			case OP_OR:
				left = Or(left, right)
			case OP_AND:
				left = And(left, right)
			case OP_XOR:
				left = Xor(left, right)
			}

		case OP_ROTL, OP_ROTR, OP_REP, KW_BPM:
			if 30 < bp {
				return left
			}
			opTok := tok
			lx.next(ctx)
			n := literalExpr(ctx, lx, 0)
			switch opTok.Kind {
			case OP_ROTL:
				left = RotL(left, toUint(n))
			case OP_ROTR:
				left = RotR(left, toUint(n))
			case OP_REP:
				reps := toUint(n)
				if reps == 0 {
					ctx.Error(PhaseSemantic, opTok.Span, "rep 0 is not allowed")
				}
				left = Repeat(left, reps)
			case KW_BPM:
				left.BPM = toUint(n)
			}

		case OP_MAP:
			if 10 < bp {
				return left
			}
			lx.next(ctx)
			notes := collectLiteralPrimaries(ctx, lx)
			for i := range left.Steps {
				left.Steps[i].Note = int64(notes[i%len(notes)])
			}

		case OP_CHAIN:
			if 10 < bp {
				return left
			}
			lx.next(ctx)
			nameTok := lx.expect(ctx, isKind(IDENT), "expected a name after chain")
			lx.next(ctx)
			ctx.declareChain(nameTok.Lit, cloneSequence(left), nameTok.Span)

		case OP_REV:
			// rev/invert are primarily prefix operators (sequencePrimary), but
			// every worked scenario that chains one onto an existing sequence
			// spells it trailing ("base rev"), so it also applies postfix at
			// the same tier as car/cdr.
			if 20 < bp {
				return left
			}
			lx.next(ctx)
			left = Reverse(left)

		case OP_INVERT:
			if 20 < bp {
				return left
			}
			lx.next(ctx)
			left = Invert(left)

		case OP_CAR:
			if 20 < bp {
				return left
			}
			lx.next(ctx)
			if len(left.Steps) == 0 {
				ctx.Error(PhaseSemantic, tok.Span, "car of an empty sequence")
			}
			left = Car(left)

		case OP_CDR:
			if 20 < bp {
				return left
			}
			lx.next(ctx)
			left = Cdr(left)

		case OP_DBG:
			if 10 < bp {
				return left
			}
			lx.next(ctx)
			mini := Minify(left)
			count := 0
			if len(mini.Steps) > 0 {
				count = len(left.Steps) / len(mini.Steps)
			}
			ctx.Notice(PhaseSemantic, tok.Span, "dbg: minified to %d step(s), repeated %d time(s) across %d total", len(mini.Steps), count, len(left.Steps))

		default:
			return left
		}
	}
}

func sequencePrimary(ctx *Context, lx *Lexer) Sequence {
	tok := lx.peek
	switch tok.Kind {
	case OP_REV:
		lx.next(ctx)
		return Reverse(sequenceExpr(ctx, lx, 40))
	case OP_INVERT:
		lx.next(ctx)
		return Invert(sequenceExpr(ctx, lx, 40))
	case BEAT, SKIP:
		return stepRun(ctx, lx)
	case INT:
		beats := literalExpr(ctx, lx, 0)
		lx.expect(ctx, isKind(SEP), "expected ':' in euclidean pattern")
		lx.next(ctx)
		steps := literalExpr(ctx, lx, 0)
		return buildEuclide(ctx, tok.Span, beats, steps)
	case SEP:
		lx.next(ctx)
		beats := literalExpr(ctx, lx, 0)
		lx.expect(ctx, isKind(SEP), "expected ':' in euclidean pattern")
		lx.next(ctx)
		steps := literalExpr(ctx, lx, 0)
		return buildEuclide(ctx, tok.Span, beats, steps)
	case IDENT:
		lx.next(ctx)
		seq, ok := ctx.chains[tok.Lit]
		if !ok {
			ctx.Error(PhaseSemantic, tok.Span, "undefined chain %q", tok.Lit)
		}
		return cloneSequence(seq)
	case LPAREN:
		lx.next(ctx)
		s := sequenceExpr(ctx, lx, 0)
		lx.expect(ctx, isKind(RPAREN), "expected ')'")
		lx.next(ctx)
		return s
	default:
		ctx.Error(PhaseSyntactic, tok.Span, "expected a sequence expression")
		panic("unreachable")
	}
}

func stepRun(ctx *Context, lx *Lexer) Sequence {
	seq := Sequence{BPM: ctx.globalBPM}
	for lx.peek.Kind == BEAT || lx.peek.Kind == SKIP {
		kind := SkipStep
		if lx.peek.Kind == BEAT {
			kind = BeatStep
		}
		seq.Steps = append(seq.Steps, Step{Kind: kind, Note: int64(ctx.globalNote)})
		lx.next(ctx)
	}
	return seq
}

func buildEuclide(ctx *Context, span Span, beatsF, stepsF float64) Sequence {
	beats, steps := toUint(beatsF), toUint(stepsF)
	if steps == 0 || beats > steps {
		ctx.Error(PhaseSemantic, span, "euclidean pattern requires beats (%d) <= steps (%d) and steps > 0", beats, steps)
	}
	seq := Euclide(beats, steps, int64(ctx.globalNote))
	seq.BPM = ctx.globalBPM
	return seq
}

// ---- statements ----------------------------------------------------------

func parseChannel(ctx *Context, lx *Lexer) uint8 {
	tok := lx.peek
	switch tok.Kind {
	case IDENT:
		lx.next(ctx)
		ch, ok := ctx.channels[tok.Lit]
		if !ok {
			ctx.Error(PhaseSemantic, tok.Span, "undefined channel alias %q", tok.Lit)
		}
		return ch
	default:
		v := literalExpr(ctx, lx, 0)
		ch := toUint(v)
		if ch < CHANNEL_MIN || ch > CHANNEL_MAX {
			ctx.Error(PhaseSemantic, tok.Span, "channel %d out of range [1,16]", ch)
		}
		return uint8(ch - 1)
	}
}

func statement(ctx *Context, lx *Lexer) {
	tok := lx.peek
	switch tok.Kind {
	case KW_ALIAS:
		lx.next(ctx)
		nameTok := lx.expect(ctx, isKind(IDENT), "expected a name after alias")
		lx.next(ctx)
		litSpan := lx.peek.Span
		lit := literalExpr(ctx, lx, 0)
		ch := toUint(lit)
		if ch < CHANNEL_MIN || ch > CHANNEL_MAX {
			ctx.Error(PhaseSemantic, litSpan, "channel %d out of range [1,16]", ch)
		}
		ctx.declareChannel(nameTok.Lit, uint8(ch-1), nameTok.Span)

	case KW_LET:
		lx.next(ctx)
		nameTok := lx.expect(ctx, isKind(IDENT), "expected a name after let")
		lx.next(ctx)
		v := literalExpr(ctx, lx, 0)
		ctx.declareConstant(nameTok.Lit, v, nameTok.Span)

	case KW_SEND:
		orig := ctx.time
		sendBranch(ctx, lx, orig)
		for lx.peek.Kind == WITH {
			lx.next(ctx)
			lx.expect(ctx, isKind(KW_SEND), "expected 'send' after '$'")
			sendBranch(ctx, lx, orig)
		}

	default:
		sequenceExpr(ctx, lx, 0)
	}
}

func sendBranch(ctx *Context, lx *Lexer, orig Unit) {
	lx.next(ctx) // consume SEND
	ch := parseChannel(ctx, lx)
	seq := sequenceExpr(ctx, lx, 0)
	partial := lowerSequence(seq, ch, orig)
	ctx.time = maxUnit(ctx.time, partial.Duration)
	ctx.tl.Duration = maxUnit(ctx.tl.Duration, partial.Duration)
	ctx.tl.Events = append(ctx.tl.Events, partial.Events...)
}

// compileProgram parses and evaluates the whole program against ctx: meta
// prelude, then statements until end-of-input. It returns normally only
// when no fatal diagnostic fired (fatal diagnostics unwind via panic and
// are recovered by the caller).
func compileProgram(ctx *Context, lx *Lexer) {
	lx.prime(ctx)

	var haveBPM, haveNote bool
	for lx.peek.Kind == KW_BPM || lx.peek.Kind == KW_NOTE {
		tok := lx.peek
		lx.next(ctx)
		v := literalExpr(ctx, lx, 0)
		switch tok.Kind {
		case KW_BPM:
			if haveBPM {
				ctx.Error(PhaseSemantic, tok.Span, "bpm specified more than once")
			}
			ctx.globalBPM = toUint(v)
			haveBPM = true
		case KW_NOTE:
			if haveNote {
				ctx.Error(PhaseSemantic, tok.Span, "note specified more than once")
			}
			ctx.globalNote = toUint(v)
			haveNote = true
		}
	}
	if !haveBPM || !haveNote {
		ctx.Error(PhaseSemantic, lx.peek.Span, "missing required bpm/note prelude")
	}

	for lx.peek.Kind != EOF {
		statement(ctx, lx)
	}
}
