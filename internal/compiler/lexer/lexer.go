package lexer

import (
	"unicode/utf8"

	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

type Lexer struct {
	input        string
	position     int  // current char index
	readPosition int  // next char index
	ch           byte // current char

	line   int // line of ch (1-indexed)
	column int // column of ch (1-indexed)

	reporter diag.Reporter

	prev    token.Kind   // kind of the last returned token
	nesting []token.Kind // open ( [ { and do, innermost last
}

func NewLexer(input string, reporter diag.Reporter) *Lexer {
	if reporter == nil {
		reporter = diag.Discard
	}
	l := &Lexer{input: input, reporter: reporter}
	l.ResetPosition()
	return l
}

// ResetPosition rewinds the lexer to the start of its input.
func (l *Lexer) ResetPosition() {
	l.position = 0
	l.readPosition = 0
	l.line = 1
	l.column = 0 // readChar increments this to 1
	l.ch = 0
	l.prev = token.Semicolon
	l.nesting = l.nesting[:0]
	l.readChar()
}

// readChar advances the lexer's position and updates the current character.
// It tracks line/column numbers; past the end of input ch is 0 and position
// stays at len(input).
func (l *Lexer) readChar() {
	if l.readPosition > len(l.input) {
		return
	}
	if l.readPosition > 0 && l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NULL (EOF)
	} else {
		l.ch = l.input[l.readPosition]
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// Returns the next character without consuming it
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEOF() bool { return l.position >= len(l.input) }

// NextToken returns the next token. Once the input is exhausted it keeps
// returning an EOF token at the end offset.
func (l *Lexer) NextToken() token.Token {
	tok := l.scan()
	l.prev = tok.Kind
	return tok
}

// Tokens scans the remaining input, EOF token included.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

type mark struct {
	offset, line, column int
}

func (l *Lexer) mark() mark { return mark{l.position, l.line, l.column} }

func (l *Lexer) spanFrom(m mark) token.Span {
	return token.Span{Start: m.offset, End: l.position, Line: m.line, Column: m.column}
}

// newToken is a helper to create a token.Token running from m to the
// current position.
func (l *Lexer) newToken(kind token.Kind, m mark) token.Token {
	return token.Token{Kind: kind, Lexeme: l.input[m.offset:l.position], Span: l.spanFrom(m)}
}

func (l *Lexer) errorf(kind diag.Kind, span token.Span, format string, args ...any) {
	l.reporter.Report(diag.Errorf(kind, span, format, args...))
}

func (l *Lexer) warnf(kind diag.Kind, span token.Span, format string, args ...any) {
	l.reporter.Report(diag.Warningf(kind, span, format, args...))
}

// terminates reports whether a newline at the current position ends a
// statement: the previous token must be able to end one and the innermost
// open construct must be a do-block (or none).
func (l *Lexer) terminates() bool {
	if !l.prev.CanEndStatement() {
		return false
	}
	if n := len(l.nesting); n > 0 && l.nesting[n-1] != token.Do {
		return false
	}
	return true
}

func (l *Lexer) scan() token.Token {
	for {
		l.skipWhitespace()

		if l.ch == '\n' && !l.atEOF() {
			m := l.mark()
			l.readChar()
			return l.newToken(token.Semicolon, m)
		}
		if l.ch == '/' && l.peekChar() == '/' {
			l.readComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			sawNewline := l.readBlockComment()
			if sawNewline && l.terminates() {
				m := l.mark()
				return token.Token{Kind: token.Semicolon, Lexeme: "\n", Span: l.spanFrom(m)}
			}
			continue
		}
		break
	}

	m := l.mark()
	if l.atEOF() {
		return token.Token{Kind: token.EOF, Span: l.spanFrom(m)}
	}

	switch l.ch {
	case '"':
		if l.peekChar() == '|' {
			return l.readMultilineString(m)
		}
		return l.readString(m)
	case '\'':
		return l.readCharLiteral(m)
	case '=':
		return l.switch3(m, token.Assign, '=', token.Equal, '>', token.WideArrow)
	case ':':
		return l.switch2(m, token.Colon, '=', token.AssignDefine)
	case '.':
		l.readChar()
		if l.ch == '.' {
			l.readChar()
			if l.ch == '=' {
				l.readChar()
				return l.newToken(token.RangeInc, m)
			}
			return l.newToken(token.RangeExc, m)
		}
		return l.newToken(token.Dot, m)
	case '<':
		l.readChar()
		switch l.ch {
		case '=':
			l.readChar()
			return l.newToken(token.LessEq, m)
		case '<':
			l.readChar()
			return l.newToken(token.ShiftLeft, m)
		case '|':
			l.readChar()
			return l.newToken(token.PipeLeft, m)
		case '>':
			l.readChar()
			return l.newToken(token.Concat, m)
		}
		return l.newToken(token.Less, m)
	case '>':
		return l.switch3(m, token.Greater, '=', token.GreaterEq, '>', token.ShiftRight)
	case '-':
		return l.switch3(m, token.Minus, '>', token.Arrow, '-', token.Decrement)
	case '+':
		return l.switch2(m, token.Plus, '+', token.Increment)
	case '*':
		return l.switch2(m, token.Asterisk, '*', token.Power)
	case '!':
		return l.switch2(m, token.Bang, '=', token.NotEqual)
	case '|':
		return l.switch2(m, token.Pipe, '>', token.PipeRight)
	case '(':
		return l.open(m, token.LParen)
	case '[':
		return l.open(m, token.LBracket)
	case '{':
		return l.open(m, token.LBrace)
	case ')':
		return l.close(m, token.RParen, token.LParen)
	case ']':
		return l.close(m, token.RBracket, token.LBracket)
	case '}':
		return l.close(m, token.RBrace, token.LBrace)
	}

	if kind, ok := singles[l.ch]; ok {
		l.readChar()
		return l.newToken(kind, m)
	}

	if isLetter(l.ch) {
		return l.readIdentifier(m)
	}
	if isDigit(l.ch) {
		return l.readNumber(m)
	}
	return l.readInvalid(m)
}

var singles = map[byte]token.Kind{
	',': token.Comma,
	';': token.Semicolon,
	'@': token.At,
	'$': token.Dollar,
	'#': token.Pound,
	'?': token.Question,
	'/': token.Slash,
	'%': token.Percent,
	'&': token.Ampersand,
	'^': token.Caret,
	'~': token.Tilde,
}

func (l *Lexer) switch2(m mark, single token.Kind, next byte, double token.Kind) token.Token {
	l.readChar()
	if l.ch == next {
		l.readChar()
		return l.newToken(double, m)
	}
	return l.newToken(single, m)
}

func (l *Lexer) switch3(m mark, single token.Kind, c1 byte, k1 token.Kind, c2 byte, k2 token.Kind) token.Token {
	l.readChar()
	switch l.ch {
	case c1:
		l.readChar()
		return l.newToken(k1, m)
	case c2:
		l.readChar()
		return l.newToken(k2, m)
	}
	return l.newToken(single, m)
}

func (l *Lexer) open(m mark, kind token.Kind) token.Token {
	l.readChar()
	l.push(kind)
	return l.newToken(kind, m)
}

func (l *Lexer) close(m mark, kind, opener token.Kind) token.Token {
	l.readChar()
	l.pop(opener)
	return l.newToken(kind, m)
}

func (l *Lexer) push(k token.Kind) { l.nesting = append(l.nesting, k) }

// pop closes the innermost open construct of the given kind along with
// anything left open inside it. A closer with no matching opener is ignored.
func (l *Lexer) pop(opener token.Kind) {
	for i := len(l.nesting) - 1; i >= 0; i-- {
		if l.nesting[i] == opener {
			l.nesting = l.nesting[:i]
			return
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			if l.terminates() {
				return
			}
			l.readChar()
		default:
			return
		}
	}
}

// readComment skips to the end of the line, leaving the newline in place.
func (l *Lexer) readComment() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

// readBlockComment skips a /* */ comment and reports whether it spanned a
// newline. An unterminated comment runs to the end of input.
func (l *Lexer) readBlockComment() bool {
	m := l.mark()
	l.readChar() // Consume '/'
	l.readChar() // Consume '*'

	sawNewline := false
	for {
		if l.atEOF() {
			l.errorf(diag.UnterminatedLiteral, l.spanFrom(m), "unterminated block comment")
			return sawNewline
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // Consume '*'
			l.readChar() // Consume '/'
			return sawNewline
		}
		if l.ch == '\n' {
			sawNewline = true
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier(m mark) token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	tok := l.newToken(token.Lookup(l.input[m.offset:l.position]), m)
	switch tok.Kind {
	case token.Do:
		l.push(token.Do)
	case token.End:
		l.pop(token.Do)
	}
	return tok
}

// readInvalid consumes one unrecognised byte, or one whole rune when the
// byte starts a valid UTF-8 sequence.
func (l *Lexer) readInvalid(m mark) token.Token {
	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	if r == utf8.RuneError {
		size = 1
	}
	for range size {
		l.readChar()
	}
	tok := l.newToken(token.Invalid, m)
	if r == utf8.RuneError {
		l.errorf(diag.InvalidCharacter, tok.Span, "invalid byte 0x%02x", tok.Lexeme[0])
	} else {
		l.errorf(diag.InvalidCharacter, tok.Span, "invalid character %q", r)
	}
	return tok
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
