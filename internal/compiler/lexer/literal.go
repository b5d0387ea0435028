package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// simpleEscapes maps the character after a backslash to its value.
var simpleEscapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}

// readString scans a single line "..." literal. An unterminated literal
// stops before the newline (or at EOF) and comes back as an Invalid token.
func (l *Lexer) readString(m mark) token.Token {
	l.readChar() // Consume opening "

	for {
		switch {
		case l.atEOF() || l.ch == '\n':
			tok := l.newToken(token.Invalid, m)
			l.errorf(diag.UnterminatedLiteral, tok.Span, "unterminated string literal")
			return tok
		case l.ch == '\\':
			l.readEscape()
		case l.ch == '"':
			l.readChar() // Consume closing "
			return l.newToken(token.String, m)
		default:
			l.readChar()
		}
	}
}

// readMultilineString scans a "|...|" literal. Every line after the first
// must start with '|' once indentation is skipped. A line that does not, or
// EOF, ends the literal before that newline as an Invalid token.
func (l *Lexer) readMultilineString(m mark) token.Token {
	l.readChar() // Consume opening "
	l.readChar() // Consume opening |

	for {
		switch {
		case l.atEOF():
			tok := l.newToken(token.Invalid, m)
			l.errorf(diag.UnterminatedLiteral, tok.Span, "unterminated multiline string literal")
			return tok
		case l.ch == '|' && l.peekChar() == '"':
			l.readChar() // Consume closing |
			l.readChar() // Consume closing "
			return l.newToken(token.String, m)
		case l.ch == '\\':
			l.readEscape()
		case l.ch == '\n':
			if !l.continuesMultiline() {
				tok := l.newToken(token.Invalid, m)
				l.errorf(diag.UnterminatedLiteral, tok.Span, "unterminated multiline string literal: expected '|' at the start of line %d", tok.Span.Line+strings.Count(tok.Lexeme, "\n")+1)
				return tok
			}
			l.readChar() // Consume newline
			for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
				l.readChar()
			}
			if l.peekChar() != '"' {
				l.readChar() // Consume line prefix |
			}
		default:
			l.readChar()
		}
	}
}

// continuesMultiline reports whether the line after the newline at the
// current position starts with '|' after spaces and tabs.
func (l *Lexer) continuesMultiline() bool {
	rest := strings.TrimLeft(l.input[l.position+1:], " \t\r")
	return strings.HasPrefix(rest, "|")
}

// readCharLiteral scans a '...' literal holding exactly one character or
// escape sequence.
func (l *Lexer) readCharLiteral(m mark) token.Token {
	l.readChar() // Consume opening '

	count := 0
	for {
		switch {
		case l.atEOF() || l.ch == '\n':
			tok := l.newToken(token.Invalid, m)
			l.errorf(diag.UnterminatedLiteral, tok.Span, "unterminated character literal")
			return tok
		case l.ch == '\\':
			l.readEscape()
			count++
		case l.ch == '\'':
			l.readChar() // Consume closing '
			tok := l.newToken(token.Char, m)
			if count != 1 {
				tok.Kind = token.Invalid
				l.errorf(diag.InvalidCharLiteral, tok.Span, "character literal must hold exactly one character, found %d", count)
			}
			return tok
		default:
			_, size := utf8.DecodeRuneInString(l.input[l.position:])
			for range size {
				l.readChar()
			}
			count++
		}
	}
}

// readEscape consumes a backslash and the character after it. Unknown
// escapes are kept verbatim and reported as a warning. A backslash right
// before a newline or EOF is left for the caller to report.
func (l *Lexer) readEscape() {
	m := l.mark()
	l.readChar() // Consume '\'
	if l.atEOF() || l.ch == '\n' {
		return
	}
	ch := l.ch
	l.readChar()
	if _, ok := simpleEscapes[ch]; !ok {
		l.warnf(diag.InvalidEscape, l.spanFrom(m), "unknown escape sequence '\\%c'", ch)
	}
}

// readNumber scans the maximal run of characters that could belong to a
// number literal and validates it afterwards, so a malformed literal still
// produces exactly one token.
func (l *Lexer) readNumber(m mark) token.Token {
	radix := 10
	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			radix = 16
		case 'o', 'O':
			radix = 8
		case 'b', 'B':
			radix = 2
		}
		if radix != 10 {
			l.readChar() // Consume '0'
			l.readChar() // Consume prefix
		}
	}

	fraction := false
	for {
		switch {
		case isLetter(l.ch) || isDigit(l.ch):
			if radix == 10 && (l.ch == 'e' || l.ch == 'E') && (l.peekChar() == '+' || l.peekChar() == '-') {
				l.readChar() // Consume exponent marker, the sign follows
			}
			l.readChar()
			continue
		case radix == 10 && !fraction && l.ch == '.' && l.peekChar() != '.':
			fraction = true
			l.readChar()
			continue
		}
		break
	}

	tok := l.newToken(token.Integer, m)
	if reason := checkNumber(tok.Lexeme, radix); reason != "" {
		tok.Kind = token.Invalid
		l.errorf(diag.InvalidNumberLiteral, tok.Span, "malformed number literal '%s': %s", tok.Lexeme, reason)
		return tok
	}
	if radix == 10 && strings.ContainsAny(tok.Lexeme, ".eE") {
		tok.Kind = token.Float
	}
	return tok
}

// checkNumber returns why lit is not a valid number literal, or "".
func checkNumber(lit string, radix int) string {
	if radix != 10 {
		body := lit[2:]
		if body == "" {
			return "missing digits after radix prefix"
		}
		return checkDigits(body, radix)
	}

	mantissa, exponent, hasExp := lit, "", false
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		mantissa, exponent, hasExp = lit[:i], lit[i+1:], true
	}

	whole, frac, hasFrac := strings.Cut(mantissa, ".")
	if reason := checkDigits(whole, 10); reason != "" {
		return reason
	}
	if hasFrac {
		if frac == "" {
			return "expected digits after '.'"
		}
		if reason := checkDigits(frac, 10); reason != "" {
			return reason
		}
	}
	if hasExp {
		exponent = strings.TrimLeft(exponent, "+-")
		if exponent == "" {
			return "expected digits in exponent"
		}
		if reason := checkDigits(exponent, 10); reason != "" {
			return reason
		}
	}
	return ""
}

// checkDigits validates a run of digits in the given radix. Underscores may
// only separate two digits.
func checkDigits(s string, radix int) string {
	if s == "" {
		return "expected digits"
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '_' {
			if i == 0 || i == len(s)-1 || s[i+1] == '_' {
				return "'_' must separate digits"
			}
			continue
		}
		if digitValue(ch) >= radix {
			return "invalid digit '" + string(ch) + "' for base " + strconv.Itoa(radix)
		}
	}
	return ""
}

func digitValue(ch byte) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'f':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'F':
		return int(ch-'A') + 10
	}
	return 36
}

// Unquote returns the value of a string or char literal lexeme, decoding
// escape sequences. Unknown escapes are kept verbatim, matching the
// warning reported while scanning. Multiline strings lose their "| |"
// delimiters and the indentation and '|' that start each continuation line.
func Unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return ""
	}
	var body string
	if len(lexeme) >= 4 && strings.HasPrefix(lexeme, `"|`) && strings.HasSuffix(lexeme, `|"`) {
		body = joinMultiline(lexeme[2 : len(lexeme)-2])
	} else {
		body = lexeme[1 : len(lexeme)-1]
	}
	if strings.IndexByte(body, '\\') < 0 {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			b.WriteByte(ch)
			continue
		}
		i++
		if v, ok := simpleEscapes[body[i]]; ok {
			b.WriteByte(v)
		} else {
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

func joinMultiline(body string) string {
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimLeft(lines[i], " \t\r")
		lines[i] = strings.TrimPrefix(line, "|")
	}
	return strings.Join(lines, "\n")
}
