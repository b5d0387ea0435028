package token

import "fmt"

type Kind int

const (
	Invalid Kind = iota
	EOF

	// Literals & Identifiers
	Ident   // x
	Integer // 12_000, 0xFF
	Float   // 12_000.50
	String  // "..."
	Char    // 'a'

	// Assignment
	Assign       // =
	AssignDefine // :=

	// Punctuation
	Dot       // .
	Comma     // ,
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	LBrace    // {
	RBrace    // }
	Colon     // :
	Semicolon // ; (also emitted for a statement-ending newline)
	Arrow     // ->
	WideArrow // =>

	// Operators
	At         // @
	Dollar     // $
	Pound      // #
	Bang       // !
	Question   // ?
	RangeExc   // ..
	RangeInc   // ..=
	PipeRight  // |>
	PipeLeft   // <|
	Concat     // <>
	Plus       // +
	Minus      // -
	Asterisk   // *
	Slash      // /
	Percent    // %
	Increment  // ++
	Decrement  // --
	Power      // **
	Ampersand  // &
	Pipe       // |
	Caret      // ^
	Tilde      // ~
	ShiftLeft  // <<
	ShiftRight // >>
	Less       // <
	LessEq     // <=
	Greater    // >
	GreaterEq  // >=
	Equal      // ==
	NotEqual   // !=

	keywordBeg
	Const
	Let
	Pub
	Return
	Do
	End
	Record
	Variant
	Use
	Interface
	Module
	Defer
	True
	False
	For
	While
	Break
	Continue
	Match
	If
	Else
	And
	Or
	Not
	Inline
	Test
	Fn
	In

	// Modes
	Comptime
	Mut
	Mov
	Loc

	// Reserved
	Private
	Derive
	Static
	Macro
	From
	Impl
	When
	Any
	As
	keywordEnd
)

var kindNames = [...]string{
	Invalid: "INVALID",
	EOF:     "EOF",

	Ident:   "IDENT",
	Integer: "INT",
	Float:   "FLOAT",
	String:  "STRING",
	Char:    "CHAR",

	Assign:       "=",
	AssignDefine: ":=",

	Dot:       ".",
	Comma:     ",",
	LParen:    "(",
	RParen:    ")",
	LBracket:  "[",
	RBracket:  "]",
	LBrace:    "{",
	RBrace:    "}",
	Colon:     ":",
	Semicolon: ";",
	Arrow:     "->",
	WideArrow: "=>",

	At:         "@",
	Dollar:     "$",
	Pound:      "#",
	Bang:       "!",
	Question:   "?",
	RangeExc:   "..",
	RangeInc:   "..=",
	PipeRight:  "|>",
	PipeLeft:   "<|",
	Concat:     "<>",
	Plus:       "+",
	Minus:      "-",
	Asterisk:   "*",
	Slash:      "/",
	Percent:    "%",
	Increment:  "++",
	Decrement:  "--",
	Power:      "**",
	Ampersand:  "&",
	Pipe:       "|",
	Caret:      "^",
	Tilde:      "~",
	ShiftLeft:  "<<",
	ShiftRight: ">>",
	Less:       "<",
	LessEq:     "<=",
	Greater:    ">",
	GreaterEq:  ">=",
	Equal:      "==",
	NotEqual:   "!=",

	Const:     "const",
	Let:       "let",
	Pub:       "pub",
	Return:    "return",
	Do:        "do",
	End:       "end",
	Record:    "record",
	Variant:   "variant",
	Use:       "use",
	Interface: "interface",
	Module:    "module",
	Defer:     "defer",
	True:      "true",
	False:     "false",
	For:       "for",
	While:     "while",
	Break:     "break",
	Continue:  "continue",
	Match:     "match",
	If:        "if",
	Else:      "else",
	And:       "and",
	Or:        "or",
	Not:       "not",
	Inline:    "inline",
	Test:      "test",
	Fn:        "fn",
	In:        "in",

	Comptime: "comptime",
	Mut:      "mut",
	Mov:      "mov",
	Loc:      "loc",

	Private: "private",
	Derive:  "derive",
	Static:  "static",
	Macro:   "macro",
	From:    "from",
	Impl:    "impl",
	When:    "when",
	Any:     "any",
	As:      "as",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) IsKeyword() bool { return keywordBeg < k && k < keywordEnd }

func (k Kind) IsLiteral() bool { return k >= Integer && k <= Char }

// IsMode reports whether k is a binding mode keyword (comptime, mut, mov, loc).
func (k Kind) IsMode() bool { return k >= Comptime && k <= Loc }

// keywords maps identifier strings to their corresponding token kinds.
var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, int(keywordEnd-keywordBeg))
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[kindNames[k]] = k
	}
}

// Lookup checks if an identifier is a keyword, returning the keyword's
// kind or Ident if it's not a keyword.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Span locates a token or node in its unit. Start/End are byte offsets
// (End exclusive), Line/Column are the 1-based position of Start.
type Span struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Column) }

func (s Span) Len() int { return s.End - s.Start }

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	out := s
	if o.Start < s.Start {
		out.Start, out.Line, out.Column = o.Start, o.Line, o.Column
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

type Token struct {
	Kind   Kind
	Lexeme string
	Span   Span
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case Semicolon:
		if t.Lexeme == "\n" {
			return "newline"
		}
	}
	if t.Lexeme == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}

// CanEndStatement reports whether a newline following a token of kind k
// terminates the current statement.
func (k Kind) CanEndStatement() bool {
	switch k {
	case Invalid, Ident, Integer, Float, String, Char, True, False,
		RParen, RBracket, RBrace, End, Return, Break, Continue,
		Increment, Decrement:
		return true
	}
	return false
}
