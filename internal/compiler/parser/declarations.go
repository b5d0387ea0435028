package parser

import (
	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// parseFunctionDeclaration -> [pub] fn name(params) [-> type] do ... end
func (p *Parser) parseFunctionDeclaration(start token.Token, public bool) ast.Statement {
	decl := &ast.FunctionDeclaration{Token: p.curTok, Public: public}
	p.nextToken()

	decl.Name = p.expectIdent("function name")
	if decl.Name == nil {
		return nil
	}

	params, ok := p.parseParameterList()
	if !ok {
		return nil
	}
	decl.Parameters = params

	if p.curTokenIs(token.Arrow) {
		p.nextToken()
		decl.ReturnType = p.parseType()
	}

	decl.Body = p.parseBlock()
	decl.Loc = p.spanFrom(start.Span, decl.Body)
	p.skipTerminator()
	return decl
}

// parseParameterList -> ( [mode] name [: type], ... )
func (p *Parser) parseParameterList() ([]*ast.Parameter, bool) {
	params := []*ast.Parameter{}
	if !p.curTokenIs(token.LParen) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected '(' to start a parameter list, found %s", p.curTok)
		return nil, false
	}
	opener := p.openDelim()

	for !p.curTokenIs(token.RParen) {
		param := p.parseParameter()
		if param == nil {
			return params, false
		}
		params = append(params, param)
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}

	return params, p.closeDelim(opener)
}

func (p *Parser) parseParameter() *ast.Parameter {
	param := &ast.Parameter{}
	start := p.curTok.Span
	if p.curTok.Kind.IsMode() {
		param.Mode = p.curTok
		p.nextToken()
	}

	param.Name = p.expectIdent("parameter name")
	if param.Name == nil {
		return nil
	}
	if p.curTokenIs(token.Colon) {
		p.nextToken()
		param.Type = p.parseType()
	}

	param.Loc = p.spanFrom(start)
	if param.Type != nil {
		param.Loc = param.Loc.Join(param.Type.Span())
	}
	return param
}

// parseRecordDeclaration -> [pub] record Name { field: type, ... }
func (p *Parser) parseRecordDeclaration(start token.Token, public bool) ast.Statement {
	decl := &ast.RecordDeclaration{Token: p.curTok, Public: public, Fields: []*ast.Field{}}
	p.nextToken()

	decl.Name = p.expectIdent("record name")
	if decl.Name == nil {
		return nil
	}
	if !p.curTokenIs(token.LBrace) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected '{' after record name, found %s", p.curTok)
		return nil
	}
	opener := p.openDelim()

	for !p.curTokenIs(token.RBrace) {
		name := p.expectIdent("field name")
		if name == nil || !p.expect(token.Colon) {
			return nil
		}
		typ := p.parseType()
		decl.Fields = append(decl.Fields, &ast.Field{Name: name, Type: typ, Loc: name.Span().Join(typ.Span())})
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}

	if !p.closeDelim(opener) {
		return nil
	}
	decl.Loc = p.spanFrom(start.Span)
	p.skipTerminator()
	return decl
}

// parseVariantDeclaration -> [pub] variant Name { Case, Case(type, ...), ... }
func (p *Parser) parseVariantDeclaration(start token.Token, public bool) ast.Statement {
	decl := &ast.VariantDeclaration{Token: p.curTok, Public: public, Cases: []*ast.VariantCase{}}
	p.nextToken()

	decl.Name = p.expectIdent("variant name")
	if decl.Name == nil {
		return nil
	}
	if !p.curTokenIs(token.LBrace) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected '{' after variant name, found %s", p.curTok)
		return nil
	}
	opener := p.openDelim()

	for !p.curTokenIs(token.RBrace) {
		name := p.expectIdent("variant case")
		if name == nil {
			return nil
		}
		vc := &ast.VariantCase{Name: name}
		if p.curTokenIs(token.LParen) {
			types, ok := p.parseTypeList()
			if !ok {
				return nil
			}
			vc.Types = types
		}
		vc.Loc = p.spanFrom(name.Span())
		decl.Cases = append(decl.Cases, vc)

		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}

	if !p.closeDelim(opener) {
		return nil
	}
	decl.Loc = p.spanFrom(start.Span)
	p.skipTerminator()
	return decl
}

// parseModuleDeclaration -> [pub] module name do items end
func (p *Parser) parseModuleDeclaration(start token.Token, public bool) ast.Statement {
	decl := &ast.ModuleDeclaration{Token: p.curTok, Public: public}
	p.nextToken()

	decl.Name = p.expectIdent("module name")
	if decl.Name == nil {
		return nil
	}
	if !p.curTokenIs(token.Do) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected 'do' after module name, found %s", p.curTok)
		return nil
	}
	opener := p.openDelim()
	decl.Body = p.parseStatementsUntilEnd()
	p.closeDelim(opener)

	decl.Loc = p.spanFrom(start.Span, lastStatement(decl.Body))
	p.skipTerminator()
	return decl
}

// parseUseDeclaration -> [pub] use a.b.c [as name]
func (p *Parser) parseUseDeclaration(start token.Token, public bool) ast.Statement {
	decl := &ast.UseDeclaration{Token: p.curTok, Public: public}
	p.nextToken()

	for {
		id := p.expectIdent("module path")
		if id == nil {
			return nil
		}
		decl.Path = append(decl.Path, id)
		if !p.curTokenIs(token.Dot) {
			break
		}
		p.nextToken()
	}

	if p.curTokenIs(token.As) {
		p.nextToken()
		decl.Alias = p.expectIdent("alias")
		if decl.Alias == nil {
			return nil
		}
	}

	decl.Loc = p.spanFrom(start.Span)
	p.expectTerminator()
	return decl
}

// parseTestDeclaration -> test "name" do ... end
func (p *Parser) parseTestDeclaration() ast.Statement {
	decl := &ast.TestDeclaration{Token: p.curTok}
	p.nextToken()

	if !p.curTokenIs(token.String) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected test name string, found %s", p.curTok)
		return nil
	}
	decl.Name = &ast.StringLiteral{Token: p.curTok, Value: lexer.Unquote(p.curTok.Lexeme)}
	p.nextToken()

	decl.Body = p.parseBlock()
	decl.Loc = p.spanFrom(decl.Token.Span, decl.Body)
	p.skipTerminator()
	return decl
}

// skipTerminator consumes an optional ';' after an item that ends in a
// closer.
func (p *Parser) skipTerminator() {
	if p.curTokenIs(token.Semicolon) {
		p.nextToken()
	}
}

// --- Types ---

// parseType -> a.b.C | []T | ?T | fn(T, ...) [-> T]
//
// A TypeBad node is returned, without consuming anything, when the current
// token cannot start a type.
func (p *Parser) parseType() *ast.TypeNode {
	tok := p.curTok
	switch tok.Kind {
	case token.Ident:
		t := &ast.TypeNode{Token: tok, Kind: ast.TypeNamed}
		for {
			id := p.expectIdent("type name")
			if id == nil {
				break
			}
			t.Path = append(t.Path, id)
			if !p.curTokenIs(token.Dot) {
				break
			}
			p.nextToken()
		}
		t.Loc = p.spanFrom(tok.Span)
		return t

	case token.LBracket:
		opener := p.openDelim()
		if !p.closeDelim(opener) {
			return &ast.TypeNode{Token: tok, Kind: ast.TypeBad, Loc: p.spanFrom(tok.Span)}
		}
		elem := p.parseType()
		return &ast.TypeNode{Token: tok, Kind: ast.TypeSlice, Elem: elem, Loc: tok.Span.Join(elem.Span())}

	case token.Question:
		p.nextToken()
		elem := p.parseType()
		return &ast.TypeNode{Token: tok, Kind: ast.TypeOptional, Elem: elem, Loc: tok.Span.Join(elem.Span())}

	case token.Fn:
		p.nextToken()
		t := &ast.TypeNode{Token: tok, Kind: ast.TypeFunction}
		params, ok := p.parseTypeList()
		if !ok {
			t.Kind = ast.TypeBad
			t.Loc = p.spanFrom(tok.Span)
			return t
		}
		t.Params = params
		if p.curTokenIs(token.Arrow) {
			p.nextToken()
			t.Result = p.parseType()
		}
		t.Loc = p.spanFrom(tok.Span)
		if t.Result != nil {
			t.Loc = t.Loc.Join(t.Result.Span())
		}
		return t
	}

	p.errorAt(tok, diag.ExpectedToken, "expected a type, found %s", tok)
	return &ast.TypeNode{Token: tok, Kind: ast.TypeBad, Loc: tok.Span}
}

// parseTypeList -> ( type, ... )
func (p *Parser) parseTypeList() ([]*ast.TypeNode, bool) {
	if !p.curTokenIs(token.LParen) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected '(', found %s", p.curTok)
		return nil, false
	}
	opener := p.openDelim()

	types := []*ast.TypeNode{}
	for !p.curTokenIs(token.RParen) {
		t := p.parseType()
		types = append(types, t)
		if t.Kind == ast.TypeBad || !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	return types, p.closeDelim(opener)
}
