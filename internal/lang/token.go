package lang

// TokenKind enumerates every lexeme class the lexer recognizes. Several kinds
// are deliberately reused across the two parser grammars (BEAT/SKIP as both
// step glyphs and literal-expr count prefixes, BPM/NOTE as both the meta
// keyword and a literal primary) — see DESIGN.md for why that overload is
// faithful to the worked scenarios rather than an oversight.
type TokenKind int

const (
	EOF TokenKind = iota
	ERROR

	INT
	IDENT

	BEAT
	SKIP

	LPAREN
	RPAREN
	SEP
	WITH

	KW_ALIAS
	KW_LET
	KW_SEND
	KW_BPM
	KW_NOTE

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_LEN

	OP_REV
	OP_INVERT

	OP_CAT
	OP_OR
	OP_AND
	OP_XOR
	OP_ROTL
	OP_ROTR
	OP_REP
	OP_MAP
	OP_CHAIN

	OP_CAR
	OP_CDR
	OP_DBG
)

var keywords = map[string]TokenKind{
	"alias": KW_ALIAS,
	"let":   KW_LET,
	"send":  KW_SEND,
	"bpm":   KW_BPM,
	"note":  KW_NOTE,
	"len":   OP_LEN,
	"beat":  BEAT,
	"skip":  SKIP,
	"rev":   OP_REV,
	"invert": OP_INVERT,
	"cat":   OP_CAT,
	"or":    OP_OR,
	"and":   OP_AND,
	"xor":   OP_XOR,
	"rotl":  OP_ROTL,
	"rotr":  OP_ROTR,
	"rep":   OP_REP,
	"map":   OP_MAP,
	"chain": OP_CHAIN,
	"car":   OP_CAR,
	"cdr":   OP_CDR,
	"dbg":   OP_DBG,
}

// Token is a lexed unit: a kind tag plus the span it came from. INT carries
// its parsed value in Int; IDENT carries its text in Lit.
type Token struct {
	Kind TokenKind
	Span Span
	Lit  string
	Int  int64
}

func canStartLiteralPrimary(k TokenKind) bool {
	switch k {
	case INT, IDENT, KW_BPM, KW_NOTE, OP_LEN, BEAT, SKIP, LPAREN:
		return true
	default:
		return false
	}
}
