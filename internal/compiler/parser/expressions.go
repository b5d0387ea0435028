package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// Precedence levels for Pratt parsing, loosest first.
const (
	_ int = iota
	PrecLowest
	PrecPipe     // |> <|
	PrecOr       // or
	PrecAnd      // and
	PrecEquality // == !=
	PrecCompare  // < <= > >=
	PrecRange    // .. ..=
	PrecBitOr    // |
	PrecBitXor   // ^
	PrecBitAnd   // &
	PrecShift    // << >>
	PrecSum      // + - <>
	PrecProduct  // * / %
	PrecPower    // **
	PrecPrefix   // -x !x not x ~x
	PrecPostfix  // f(x) a[i] a.b x++ x--
)

// Map tokens to precedence levels
var precedences = map[token.Kind]int{
	token.PipeRight:  PrecPipe,
	token.PipeLeft:   PrecPipe,
	token.Or:         PrecOr,
	token.And:        PrecAnd,
	token.Equal:      PrecEquality,
	token.NotEqual:   PrecEquality,
	token.Less:       PrecCompare,
	token.LessEq:     PrecCompare,
	token.Greater:    PrecCompare,
	token.GreaterEq:  PrecCompare,
	token.RangeExc:   PrecRange,
	token.RangeInc:   PrecRange,
	token.Pipe:       PrecBitOr,
	token.Caret:      PrecBitXor,
	token.Ampersand:  PrecBitAnd,
	token.ShiftLeft:  PrecShift,
	token.ShiftRight: PrecShift,
	token.Plus:       PrecSum,
	token.Minus:      PrecSum,
	token.Concat:     PrecSum,
	token.Asterisk:   PrecProduct,
	token.Slash:      PrecProduct,
	token.Percent:    PrecProduct,
	token.Power:      PrecPower,
	token.LParen:     PrecPostfix,
	token.LBracket:   PrecPostfix,
	token.Dot:        PrecPostfix,
	token.Increment:  PrecPostfix,
	token.Decrement:  PrecPostfix,
}

// Operators that group right to left.
var rightAssoc = map[token.Kind]bool{
	token.PipeLeft: true,
	token.Power:    true,
}

// Precedence returns the binding power of k as an infix or postfix
// operator, or 0 if it is not one.
func Precedence(k token.Kind) int { return precedences[k] }

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Kind]; ok {
		return prec
	}
	return PrecLowest
}

func (p *Parser) registerPrefix(k token.Kind, fn prefixParseFn) {
	p.prefixParseFns[k] = fn
}

func (p *Parser) registerInfix(k token.Kind, fn infixParseFn) {
	p.infixParseFns[k] = fn
}

func (p *Parser) initializePratt() {
	p.prefixParseFns = make(map[token.Kind]prefixParseFn)
	p.registerPrefix(token.Ident, p.parseIdentifier)
	p.registerPrefix(token.Integer, p.parseIntegerLiteral)
	p.registerPrefix(token.Float, p.parseFloatLiteral)
	p.registerPrefix(token.String, p.parseStringLiteral)
	p.registerPrefix(token.Char, p.parseCharLiteral)
	p.registerPrefix(token.True, p.parseBooleanLiteral)
	p.registerPrefix(token.False, p.parseBooleanLiteral)
	p.registerPrefix(token.LParen, p.parseGroupedExpression)
	p.registerPrefix(token.LBracket, p.parseArrayLiteral)
	p.registerPrefix(token.Do, p.parseBlockExpression)
	p.registerPrefix(token.If, p.parseIfExpression)
	p.registerPrefix(token.Match, p.parseMatchExpression)
	p.registerPrefix(token.Fn, p.parseFunctionLiteral)
	for _, k := range []token.Kind{token.Minus, token.Bang, token.Not, token.Tilde} {
		p.registerPrefix(k, p.parsePrefixExpression)
	}

	p.infixParseFns = make(map[token.Kind]infixParseFn)
	for k, prec := range precedences {
		if prec < PrecPostfix {
			p.registerInfix(k, p.parseInfixExpression)
		}
	}
	p.registerInfix(token.LParen, p.parseCallExpression)
	p.registerInfix(token.LBracket, p.parseIndexExpression)
	p.registerInfix(token.Dot, p.parseMemberExpression)
	p.registerInfix(token.Increment, p.parsePostfixExpression)
	p.registerInfix(token.Decrement, p.parsePostfixExpression)
}

// parseExpression parses an expression whose operators all bind tighter
// than precedence. It always returns a node; on failure that node is a
// BadExpression at the offending token, which is left unconsumed.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curTok.Kind]
	if prefix == nil {
		tok := p.curTok
		p.errorAt(tok, diag.ExpectedExpression, "expected expression, found %s", tok)
		return &ast.BadExpression{Token: tok, Loc: tok.Span}
	}
	leftExp := prefix()

	for precedence < p.curPrecedence() {
		if ast.IsBad(leftExp) {
			return leftExp
		}
		infix := p.infixParseFns[p.curTok.Kind]
		if infix == nil {
			return leftExp
		}
		leftExp = infix(leftExp)
	}
	return leftExp
}

// --- Prefix ---

func (p *Parser) parseIdentifier() ast.Expression {
	id := &ast.Identifier{Token: p.curTok, Value: p.curTok.Lexeme}
	p.nextToken()
	return id
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curTok, Value: strings.ReplaceAll(p.curTok.Lexeme, "_", "")}
	p.nextToken()
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curTok, Value: strings.ReplaceAll(p.curTok.Lexeme, "_", "")}
	p.nextToken()
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	lit := &ast.StringLiteral{Token: p.curTok, Value: lexer.Unquote(p.curTok.Lexeme)}
	p.nextToken()
	return lit
}

func (p *Parser) parseCharLiteral() ast.Expression {
	r, _ := utf8.DecodeRuneInString(lexer.Unquote(p.curTok.Lexeme))
	lit := &ast.CharLiteral{Token: p.curTok, Value: r}
	p.nextToken()
	return lit
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	lit := &ast.BooleanLiteral{Token: p.curTok, Value: p.curTokenIs(token.True)}
	p.nextToken()
	return lit
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curTok, Operator: p.curTok.Kind}
	p.nextToken()
	expr.Right = p.parseExpression(PrecPrefix)
	expr.Loc = expr.Token.Span.Join(expr.Right.Span())
	return expr
}

// parseGroupedExpression -> ( expression ) or the unit value ()
func (p *Parser) parseGroupedExpression() ast.Expression {
	opener := p.openDelim()
	if p.curTokenIs(token.RParen) {
		p.closeDelim(opener)
		return &ast.UnitLiteral{Token: opener, Loc: p.spanFrom(opener.Span)}
	}

	inner := p.parseExpression(PrecLowest)
	p.closeDelim(opener)
	return &ast.GroupedExpression{Token: opener, Expression: inner, Loc: p.spanFrom(opener.Span, inner)}
}

// parseArrayLiteral -> [ expression, ... ]
func (p *Parser) parseArrayLiteral() ast.Expression {
	opener := p.openDelim()
	elems := p.parseExpressionList(token.RBracket)
	p.closeDelim(opener)
	return &ast.ArrayLiteral{Token: opener, Elements: elems, Loc: p.spanFrom(opener.Span, lastExpression(elems))}
}

func (p *Parser) parseBlockExpression() ast.Expression {
	return p.parseBlock()
}

// parseIfExpression -> if cond do ... end [else do ... end | else if ...]
func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpression{Token: p.curTok}
	p.nextToken()

	expr.Condition = p.parseExpression(PrecLowest)
	expr.Consequence = p.parseBlock()

	// else may sit on the line after 'end'
	if p.curTokenIs(token.Semicolon) && p.curTok.Lexeme == "\n" && p.peekTokenIs(token.Else) {
		p.nextToken()
	}
	if p.curTokenIs(token.Else) {
		p.nextToken()
		if p.curTokenIs(token.If) {
			expr.Alternative = p.parseIfExpression()
		} else {
			expr.Alternative = p.parseBlock()
		}
	}

	last := ast.Node(expr.Consequence)
	if expr.Alternative != nil {
		last = expr.Alternative
	}
	expr.Loc = p.spanFrom(expr.Token.Span, expr.Condition, last)
	return expr
}

// parseMatchExpression -> match value do pattern => body ... end
func (p *Parser) parseMatchExpression() ast.Expression {
	expr := &ast.MatchExpression{Token: p.curTok, Cases: []*ast.MatchCase{}}
	p.nextToken()

	expr.Value = p.parseExpression(PrecLowest)
	if !p.curTokenIs(token.Do) {
		p.errorAt(p.curTok, diag.ExpectedToken, "expected 'do' after match value, found %s", p.curTok)
		expr.Loc = p.spanFrom(expr.Token.Span, expr.Value)
		return expr
	}
	opener := p.openDelim()

	for !p.curTokenIs(token.End) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.Semicolon) || p.curTokenIs(token.Comma) {
			p.nextToken()
			continue
		}
		mc := p.parseMatchCase()
		expr.Cases = append(expr.Cases, mc)
		if p.panicking {
			break
		}
	}
	p.closeDelim(opener)

	var last ast.Node = expr.Value
	if n := len(expr.Cases); n > 0 {
		last = expr.Cases[n-1]
	}
	expr.Loc = p.spanFrom(expr.Token.Span, last)
	return expr
}

func (p *Parser) parseMatchCase() *ast.MatchCase {
	mc := &ast.MatchCase{Pattern: p.parseExpression(PrecLowest)}
	mc.Token = p.curTok
	if !p.expect(token.WideArrow) {
		mc.Body = &ast.BadExpression{Token: p.curTok, Loc: p.curTok.Span}
	} else {
		mc.Body = p.parseExpression(PrecLowest)
	}
	mc.Loc = mc.Pattern.Span().Join(mc.Body.Span())
	return mc
}

// parseFunctionLiteral -> fn(params) [-> type] do ... end
func (p *Parser) parseFunctionLiteral() ast.Expression {
	fn := &ast.FunctionLiteral{Token: p.curTok}
	p.nextToken()

	params, ok := p.parseParameterList()
	if !ok {
		return &ast.BadExpression{Token: fn.Token, Loc: p.spanFrom(fn.Token.Span)}
	}
	fn.Parameters = params
	if p.curTokenIs(token.Arrow) {
		p.nextToken()
		fn.ReturnType = p.parseType()
	}
	fn.Body = p.parseBlock()
	fn.Loc = p.spanFrom(fn.Token.Span, fn.Body)
	return fn
}

// --- Infix and postfix ---

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Token: p.curTok, Operator: p.curTok.Kind, Left: left}
	precedence := p.curPrecedence()
	if rightAssoc[p.curTok.Kind] {
		precedence--
	}
	p.nextToken()

	expr.Right = p.parseExpression(precedence)
	expr.Loc = left.Span().Join(expr.Right.Span())
	return expr
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	opener := p.openDelim()
	args := p.parseExpressionList(token.RParen)
	p.closeDelim(opener)
	return &ast.CallExpression{
		Token:     opener,
		Function:  function,
		Arguments: args,
		Loc:       p.spanFrom(function.Span(), lastExpression(args)),
	}
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	opener := p.openDelim()
	index := p.parseExpression(PrecLowest)
	p.closeDelim(opener)
	return &ast.IndexExpression{Token: opener, Left: left, Index: index, Loc: p.spanFrom(left.Span(), index)}
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	dot := p.curTok
	p.nextToken()
	name := p.expectIdent("member name")
	if name == nil {
		return &ast.BadExpression{Token: p.curTok, Loc: left.Span().Join(p.curTok.Span)}
	}
	return &ast.MemberExpression{Token: dot, Left: left, Name: name, Loc: left.Span().Join(name.Span())}
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.PostfixExpression{Token: p.curTok, Operator: p.curTok.Kind, Left: left}
	p.nextToken()
	expr.Loc = left.Span().Join(expr.Token.Span)
	return expr
}

// parseExpressionList parses comma separated expressions up to end, which
// is left for the caller. A trailing comma is allowed.
func (p *Parser) parseExpressionList(end token.Kind) []ast.Expression {
	list := []ast.Expression{}
	for !p.curTokenIs(end) {
		expr := p.parseExpression(PrecLowest)
		list = append(list, expr)
		if ast.IsBad(expr) || !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	return list
}

func lastExpression(exprs []ast.Expression) ast.Node {
	if len(exprs) == 0 {
		return nil
	}
	return exprs[len(exprs)-1]
}
