package parser

import (
	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// parseStatement parses one statement or item and recovers from any error
// inside it.
func (p *Parser) parseStatement() ast.Statement {
	base := len(p.open)
	first := p.curTok

	stmt := p.parseStatementKind()
	if p.panicking {
		return p.recoverStatement(base, first, stmt)
	}
	return stmt
}

func (p *Parser) parseStatementKind() ast.Statement {
	switch p.curTok.Kind {
	case token.Pub:
		return p.parsePublicDeclaration()
	case token.Fn:
		if p.peekTokenIs(token.Ident) {
			return p.parseFunctionDeclaration(p.curTok, false)
		}
		return p.parseExpressionStatement()
	case token.Record:
		return p.parseRecordDeclaration(p.curTok, false)
	case token.Variant:
		return p.parseVariantDeclaration(p.curTok, false)
	case token.Module:
		return p.parseModuleDeclaration(p.curTok, false)
	case token.Use:
		return p.parseUseDeclaration(p.curTok, false)
	case token.Test:
		return p.parseTestDeclaration()
	case token.Let, token.Const:
		return p.parseBindingStatement(p.curTok, false)
	case token.Ident:
		if p.peekTokenIs(token.AssignDefine) {
			return p.parseDefineStatement()
		}
		return p.parseExpressionStatement()
	case token.Return:
		return p.parseReturnStatement()
	case token.Break:
		stmt := &ast.BreakStatement{Token: p.curTok}
		p.nextToken()
		p.expectTerminator()
		return stmt
	case token.Continue:
		stmt := &ast.ContinueStatement{Token: p.curTok}
		p.nextToken()
		p.expectTerminator()
		return stmt
	case token.Defer:
		return p.parseDeferStatement()
	case token.While:
		return p.parseWhileStatement()
	case token.For:
		return p.parseForStatement()
	case token.RParen, token.RBracket, token.RBrace, token.End:
		tok := p.curTok
		p.errorAt(tok, diag.UnbalancedDelimiter, "unexpected %s with no matching opener", tok)
		p.nextToken()
		return &ast.BadStatement{Token: tok, Loc: tok.Span}
	default:
		return p.parseExpressionStatement()
	}
}

// expectTerminator requires the end of a statement: a semicolon or newline,
// the end of the enclosing block, or the end of input. A statement that
// itself ended with a block closer needs nothing further.
func (p *Parser) expectTerminator() {
	if p.panicking {
		// synchronize consumes the terminator
		return
	}
	switch p.curTok.Kind {
	case token.Semicolon:
		p.nextToken()
		return
	case token.End, token.EOF:
		return
	}
	if p.prevTok.Kind == token.End || p.prevTok.Kind == token.RBrace {
		return
	}
	p.errorAt(p.curTok, diag.UnexpectedToken, "expected ';' or newline after statement, found %s", p.curTok)
}

// parsePublicDeclaration handles pub followed by an item.
func (p *Parser) parsePublicDeclaration() ast.Statement {
	pubTok := p.curTok
	p.nextToken()

	switch p.curTok.Kind {
	case token.Fn:
		return p.parseFunctionDeclaration(pubTok, true)
	case token.Record:
		return p.parseRecordDeclaration(pubTok, true)
	case token.Variant:
		return p.parseVariantDeclaration(pubTok, true)
	case token.Module:
		return p.parseModuleDeclaration(pubTok, true)
	case token.Use:
		return p.parseUseDeclaration(pubTok, true)
	case token.Let, token.Const:
		return p.parseBindingStatement(pubTok, true)
	}
	p.errorAt(p.curTok, diag.ExpectedToken, "expected a declaration after 'pub', found %s", p.curTok)
	return nil
}

// parseBindingStatement -> [pub] let|const [mode] name [: type] = value
func (p *Parser) parseBindingStatement(start token.Token, public bool) ast.Statement {
	stmt := &ast.BindingStatement{Token: p.curTok, Public: public}
	p.nextToken()

	if p.curTok.Kind.IsMode() {
		stmt.Mode = p.curTok
		p.nextToken()
	}

	stmt.Name = p.expectIdent("binding name")
	if stmt.Name == nil {
		return nil
	}

	if p.curTokenIs(token.Colon) {
		p.nextToken()
		stmt.Type = p.parseType()
	}

	if !p.expect(token.Assign) {
		stmt.Value = &ast.BadExpression{Token: p.curTok, Loc: p.curTok.Span}
		stmt.Loc = p.spanFrom(start.Span, stmt.Value)
		return stmt
	}

	stmt.Value = p.parseExpression(PrecLowest)
	stmt.Loc = p.spanFrom(start.Span, stmt.Value)
	p.expectTerminator()
	return stmt
}

// parseDefineStatement -> name := value
func (p *Parser) parseDefineStatement() ast.Statement {
	name := &ast.Identifier{Token: p.curTok, Value: p.curTok.Lexeme}
	stmt := &ast.BindingStatement{Token: p.curTok, Name: name}
	p.nextToken() // name
	p.nextToken() // :=

	stmt.Value = p.parseExpression(PrecLowest)
	stmt.Loc = p.spanFrom(name.Span(), stmt.Value)
	p.expectTerminator()
	return stmt
}

// parseReturnStatement -> return [expression]
func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curTok}
	p.nextToken()

	switch p.curTok.Kind {
	case token.Semicolon, token.End, token.EOF:
	default:
		stmt.ReturnValue = p.parseExpression(PrecLowest)
	}
	if stmt.ReturnValue != nil {
		stmt.Loc = p.spanFrom(stmt.Token.Span, stmt.ReturnValue)
	} else {
		stmt.Loc = stmt.Token.Span
	}
	p.expectTerminator()
	return stmt
}

func (p *Parser) parseDeferStatement() ast.Statement {
	stmt := &ast.DeferStatement{Token: p.curTok}
	p.nextToken()
	stmt.Value = p.parseExpression(PrecLowest)
	stmt.Loc = p.spanFrom(stmt.Token.Span, stmt.Value)
	p.expectTerminator()
	return stmt
}

// parseWhileStatement -> while condition do ... end
func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curTok}
	p.nextToken()
	stmt.Condition = p.parseExpression(PrecLowest)
	stmt.Body = p.parseBlock()
	stmt.Loc = p.spanFrom(stmt.Token.Span, stmt.Condition, stmt.Body)
	p.expectTerminator()
	return stmt
}

// parseForStatement -> for name in iterable do ... end
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curTok}
	p.nextToken()

	stmt.Variable = p.expectIdent("loop variable")
	if stmt.Variable == nil || !p.expect(token.In) {
		return nil
	}
	stmt.Iterable = p.parseExpression(PrecLowest)
	stmt.Body = p.parseBlock()
	stmt.Loc = p.spanFrom(stmt.Token.Span, stmt.Iterable, stmt.Body)
	p.expectTerminator()
	return stmt
}

// parseExpressionStatement parses an expression, or an assignment when the
// expression is followed by '='.
func (p *Parser) parseExpressionStatement() ast.Statement {
	first := p.curTok
	expr := p.parseExpression(PrecLowest)

	if p.curTokenIs(token.Assign) && !ast.IsBad(expr) {
		assign := &ast.AssignmentStatement{Token: p.curTok, Target: expr}
		if !isAssignable(expr) {
			p.errorAt(p.curTok, diag.UnexpectedToken, "cannot assign to %s", expr)
			return &ast.ExpressionStatement{Token: first, Expression: expr}
		}
		p.nextToken()
		assign.Value = p.parseExpression(PrecLowest)
		assign.Loc = p.spanFrom(expr.Span(), assign.Value)
		p.expectTerminator()
		return assign
	}

	stmt := &ast.ExpressionStatement{Token: first, Expression: expr}
	p.expectTerminator()
	return stmt
}

func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
		return true
	}
	return false
}

// parseBlock -> do statements end
//
// A block is always returned so callers can store it; when the opening
// 'do' is missing it is empty and the error has been reported.
func (p *Parser) parseBlock() *ast.BlockExpression {
	block := &ast.BlockExpression{Token: p.curTok, Statements: []ast.Statement{}, Loc: p.curTok.Span}
	if !p.curTokenIs(token.Do) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected 'do' to start a block, found %s", p.curTok)
		return block
	}

	opener := p.openDelim()
	block.Statements = p.parseStatementsUntilEnd()
	p.closeDelim(opener)
	block.Loc = p.spanFrom(opener.Span, lastStatement(block.Statements))
	return block
}

// parseStatementsUntilEnd parses statements up to (not including) the
// 'end' of the enclosing block.
func (p *Parser) parseStatementsUntilEnd() []ast.Statement {
	stmts := []ast.Statement{}
	for !p.curTokenIs(token.End) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.Semicolon) {
			p.nextToken()
			continue
		}
		before := p.read
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.read == before {
			p.nextToken()
		}
	}
	return stmts
}

// lastStatement returns the final statement as a Node, or nil when there is
// none.
func lastStatement(stmts []ast.Statement) ast.Node {
	if len(stmts) == 0 {
		return nil
	}
	return stmts[len(stmts)-1]
}
