package parser

import (
	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// SyncSet is the set of token kinds at which a panicking parser resumes.
// A semicolon in the set is consumed on resynchronizing; any other member
// is left in place to start the next statement.
type SyncSet map[token.Kind]bool

func NewSyncSet(kinds ...token.Kind) SyncSet {
	s := make(SyncSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// DefaultSyncSet resumes at statement terminators, block closers and the
// keywords that begin an item or statement.
func DefaultSyncSet() SyncSet {
	return NewSyncSet(
		token.Semicolon, token.End, token.RBrace,
		token.Fn, token.Record, token.Variant, token.Module, token.Use, token.Test,
		token.Let, token.Const, token.Pub, token.Return,
		token.While, token.For, token.Defer, token.Break, token.Continue,
	)
}

func (s SyncSet) Has(k token.Kind) bool { return s[k] }

// synchronize discards tokens until the parser reaches a boundary it can
// resume from, then leaves panic mode.
//
// base is the depth of p.open when the failed statement began. Delimiters
// opened after that and never closed are considered abandoned: tokens up to
// their closers are skipped, and only tokens at the statement's own level
// can end the skip. A closer that matches nothing abandoned belongs to an
// enclosing construct and is left for it. The returned span covers the
// discarded tokens; ok is false if nothing was discarded.
func (p *Parser) synchronize(base int) (skipped token.Span, ok bool) {
	var pending []token.Kind
	for _, t := range p.open[base:] {
		pending = append(pending, t.Kind)
	}
	p.open = p.open[:base]

	first := p.read
	start := p.curTok.Span
	defer func() {
		p.panicking = false
		if p.read > first {
			skipped, ok = start.Join(p.prevTok.Span), true
		}
	}()

	for !p.curTokenIs(token.EOF) {
		k := p.curTok.Kind

		switch {
		case isOpener(k):
			pending = append(pending, k)
			p.nextToken()
			continue

		case isCloser(k):
			if i := lastOpener(pending, k); i >= 0 {
				pending = pending[:i]
				p.nextToken()
				continue
			}
			if base == 0 {
				// A stray closer at the top level closes nothing.
				p.nextToken()
				continue
			}
			return
		}

		if len(pending) == 0 && p.syncSet.Has(k) {
			if k == token.Semicolon {
				p.nextToken()
			}
			return
		}
		p.nextToken()
	}
	return
}

// lastOpener finds the innermost pending opener that closer would close.
func lastOpener(pending []token.Kind, closer token.Kind) int {
	for i := len(pending) - 1; i >= 0; i-- {
		if closerOf(pending[i]) == closer {
			return i
		}
	}
	return -1
}

// recoverStatement finishes a statement that hit an error. It resynchronizes and,
// when the statement has no error marker of its own, wraps it in a
// BadStatement so the failure is visible in the tree.
func (p *Parser) recoverStatement(base int, first token.Token, stmt ast.Statement) ast.Statement {
	skipped, ok := p.synchronize(base)

	if stmt != nil && ast.CountBad(stmt) > 0 {
		return stmt
	}

	bad := &ast.BadStatement{Token: first, Partial: stmt, Loc: first.Span}
	if stmt != nil {
		bad.Loc = bad.Loc.Join(stmt.Span())
	}
	if ok {
		bad.Loc = bad.Loc.Join(skipped)
	}
	return bad
}
