// Package parser turns the token stream of one compilation unit into an
// ast.Program. It never stops at the first error: every syntax error is
// reported once, marked in the tree, and parsing resumes at the next
// statement boundary.
package parser

import (
	"context"
	"fmt"

	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// TokenSource yields tokens on demand. *lexer.Lexer satisfies it; callers
// may wrap it, for example to time scanning separately from parsing.
type TokenSource interface {
	NextToken() token.Token
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	src     TokenSource
	prevTok token.Token // last consumed token
	curTok  token.Token
	peekTok token.Token
	read    int // tokens consumed so far

	name     string
	ctx      context.Context
	reporter diag.Reporter
	diags    []diag.Diagnostic
	errors   int

	// panicking is set by the first error in a statement and cleared once
	// the parser resynchronizes. Errors reported meanwhile are dropped.
	panicking bool
	syncSet   SyncSet
	open      []token.Token // delimiters consumed but not yet closed
	canceled  bool

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

type Option func(*Parser)

// WithReporter streams every syntax diagnostic to r as it is found, in
// addition to recording it on the parser.
func WithReporter(r diag.Reporter) Option {
	return func(p *Parser) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithSyncSet replaces DefaultSyncSet.
func WithSyncSet(s SyncSet) Option {
	return func(p *Parser) {
		if s != nil {
			p.syncSet = s
		}
	}
}

// WithContext lets a caller abandon a unit between top-level items.
func WithContext(ctx context.Context) Option {
	return func(p *Parser) { p.ctx = ctx }
}

// WithName sets the name recorded on the resulting Program.
func WithName(name string) Option {
	return func(p *Parser) { p.name = name }
}

func NewParser(src TokenSource, opts ...Option) *Parser {
	p := &Parser{
		src:      src,
		ctx:      context.Background(),
		reporter: diag.Discard,
		syncSet:  DefaultSyncSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.initializePratt()
	return p
}

// Parse scans and parses src as a single unit. The returned diagnostics
// include lexical and syntax reports ordered by position.
func Parse(name, src string, opts ...Option) (*ast.Program, []diag.Diagnostic) {
	var list diag.List
	p := NewParser(nil, append(opts, WithName(name))...)
	p.reporter = diag.Tee(&list, p.reporter)
	p.src = lexer.NewLexer(src, p.reporter)
	return p.ParseProgram(), list.Items()
}

// --- Token Handling ---
func (p *Parser) nextToken() {
	p.prevTok = p.curTok
	p.curTok = p.peekTok
	p.peekTok = p.src.NextToken()
	p.read++
}

func (p *Parser) curTokenIs(k token.Kind) bool  { return p.curTok.Kind == k }
func (p *Parser) peekTokenIs(k token.Kind) bool { return p.peekTok.Kind == k }

// --- Error Handling ---

// addError records a syntax error at span and enters panic mode. While the
// parser is panicking further errors are suppressed.
func (p *Parser) addError(kind diag.Kind, span token.Span, format string, args ...any) {
	if p.panicking {
		return
	}
	p.panicking = true
	d := diag.Errorf(kind, span, format, args...)
	p.diags = append(p.diags, d)
	p.errors++
	p.reporter.Report(d)
}

// errorAt reports a syntax error against tok. Invalid tokens were already
// reported by the lexer, so they only put the parser into panic mode.
func (p *Parser) errorAt(tok token.Token, kind diag.Kind, format string, args ...any) {
	if tok.Kind == token.Invalid {
		p.panicking = true
		return
	}
	p.addError(kind, tok.Span, format, args...)
}

// Diagnostics returns the syntax diagnostics reported so far.
func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }

// ErrorCount is the number of syntax errors reported so far.
func (p *Parser) ErrorCount() int { return p.errors }

// Canceled reports whether parsing stopped early because the context was
// done. The returned Program then holds only the items parsed before that.
func (p *Parser) Canceled() bool { return p.canceled }

// expect consumes the current token if it has kind k, otherwise reports
// an expected-token error and leaves the token in place.
func (p *Parser) expect(k token.Kind) bool {
	if p.curTokenIs(k) {
		p.nextToken()
		return true
	}
	p.errorAt(p.curTok, diag.ExpectedToken, "expected '%s', found %s", k, p.curTok)
	return false
}

// expectIdent consumes an identifier, returning nil if the current token
// is not one.
func (p *Parser) expectIdent(what string) *ast.Identifier {
	if !p.curTokenIs(token.Ident) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected %s, found %s", what, p.curTok)
		return nil
	}
	id := &ast.Identifier{Token: p.curTok, Value: p.curTok.Lexeme}
	p.nextToken()
	return id
}

// --- Delimiters ---

// openDelim consumes an opening delimiter and remembers it until the
// matching closeDelim.
func (p *Parser) openDelim() token.Token {
	tok := p.curTok
	p.open = append(p.open, tok)
	p.nextToken()
	return tok
}

// closeDelim consumes the closer for opener. When it is missing an
// unbalanced-delimiter error names the opener and its position.
func (p *Parser) closeDelim(opener token.Token) bool {
	want := closerOf(opener.Kind)
	if p.curTokenIs(want) {
		if n := len(p.open); n > 0 && p.open[n-1].Span == opener.Span {
			p.open = p.open[:n-1]
		}
		p.nextToken()
		return true
	}
	p.errorAt(p.curTok, diag.UnbalancedDelimiter, "expected '%s' to close '%s' at %s, found %s",
		want, opener.Lexeme, opener.Span, p.curTok)
	return false
}

func closerOf(k token.Kind) token.Kind {
	switch k {
	case token.LParen:
		return token.RParen
	case token.LBracket:
		return token.RBracket
	case token.LBrace:
		return token.RBrace
	case token.Do:
		return token.End
	}
	return token.Invalid
}

func isOpener(k token.Kind) bool { return closerOf(k) != token.Invalid }

func isCloser(k token.Kind) bool {
	return k == token.RParen || k == token.RBracket || k == token.RBrace || k == token.End
}

// --- Spans ---

// spanFrom covers start, the last consumed token and any extra nodes. Extra
// nodes matter when a trailing child is an error marker sitting on a token
// that was never consumed.
func (p *Parser) spanFrom(start token.Span, extra ...ast.Node) token.Span {
	s := start
	if p.prevTok.Span.Start >= start.Start {
		s = s.Join(p.prevTok.Span)
	}
	for _, n := range extra {
		if n != nil {
			s = s.Join(n.Span())
		}
	}
	return s
}

// --- Program ---

// ParseProgram parses the whole unit. It always returns a Program; syntax
// errors are reported through Diagnostics and marked with Bad nodes.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Name: p.name, Statements: []ast.Statement{}}

	// Read two tokens so curTok and peekTok are both set
	p.nextToken()
	p.nextToken()
	p.read = 0

	for !p.curTokenIs(token.EOF) {
		if p.ctx.Err() != nil {
			p.canceled = true
			break
		}
		if p.curTokenIs(token.Semicolon) {
			p.nextToken()
			continue
		}

		before := p.read
		if stmt := p.parseStatement(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if p.read == before {
			// Nothing was consumed; force progress.
			p.nextToken()
		}
	}

	program.Loc = token.Span{Start: 0, End: p.curTok.Span.End, Line: 1, Column: 1}
	return program
}

func (p *Parser) String() string {
	return fmt.Sprintf("parser(%s at %s, %d errors)", p.name, p.curTok.Span, p.errors)
}
