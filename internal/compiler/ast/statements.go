package ast

import (
	"bytes"

	"github.com/ruka-lang/ruka/internal/compiler/token"
)

type ExpressionStatement struct {
	Token      token.Token // first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) Span() token.Span     { return es.Expression.Span() }
func (es *ExpressionStatement) String() string       { return es.Expression.String() }

// BindingStatement -> let x = 1, const mut y: int = 2 or z := 3
type BindingStatement struct {
	Token  token.Token // let, const, or the name for :=
	Public bool
	Mode   token.Token // zero unless a mode keyword was given
	Name   *Identifier
	Type   *TypeNode // nil when omitted
	Value  Expression
	Loc    token.Span
}

func (bs *BindingStatement) statementNode()       {}
func (bs *BindingStatement) declarationNode()     {}
func (bs *BindingStatement) DeclName() string     { return bs.Name.Value }
func (bs *BindingStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BindingStatement) Span() token.Span     { return bs.Loc }

// IsConst reports whether the binding was introduced with const.
func (bs *BindingStatement) IsConst() bool { return bs.Token.Kind == token.Const }

// IsDefine reports whether the binding used the name := value shorthand.
func (bs *BindingStatement) IsDefine() bool { return bs.Token.Kind == token.Ident }

func (bs *BindingStatement) String() string {
	var out bytes.Buffer
	if bs.Public {
		out.WriteString("pub ")
	}
	if bs.IsDefine() {
		out.WriteString(bs.Name.String() + " := " + bs.Value.String())
		return out.String()
	}
	out.WriteString(bs.Token.Lexeme + " ")
	if bs.Mode.Kind.IsMode() {
		out.WriteString(bs.Mode.Lexeme + " ")
	}
	out.WriteString(bs.Name.String())
	if bs.Type != nil {
		out.WriteString(": " + bs.Type.String())
	}
	out.WriteString(" = " + bs.Value.String())
	return out.String()
}

// AssignmentStatement -> x = 456 or xs[0] = 1
type AssignmentStatement struct {
	Token  token.Token // =
	Target Expression
	Value  Expression
	Loc    token.Span
}

func (as *AssignmentStatement) statementNode()       {}
func (as *AssignmentStatement) TokenLiteral() string { return as.Token.Lexeme }
func (as *AssignmentStatement) Span() token.Span     { return as.Loc }
func (as *AssignmentStatement) String() string {
	return as.Target.String() + " = " + as.Value.String()
}

// ReturnStatement -> return expression or return
type ReturnStatement struct {
	Token       token.Token
	ReturnValue Expression // nil for a bare return
	Loc         token.Span
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *ReturnStatement) Span() token.Span     { return rs.Loc }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return"
	}
	return "return " + rs.ReturnValue.String()
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BreakStatement) Span() token.Span     { return bs.Token.Span }
func (bs *BreakStatement) String() string       { return "break" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Lexeme }
func (cs *ContinueStatement) Span() token.Span     { return cs.Token.Span }
func (cs *ContinueStatement) String() string       { return "continue" }

// DeferStatement -> defer close(f)
type DeferStatement struct {
	Token token.Token
	Value Expression
	Loc   token.Span
}

func (ds *DeferStatement) statementNode()       {}
func (ds *DeferStatement) TokenLiteral() string { return ds.Token.Lexeme }
func (ds *DeferStatement) Span() token.Span     { return ds.Loc }
func (ds *DeferStatement) String() string       { return "defer " + ds.Value.String() }

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockExpression
	Loc       token.Span
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Lexeme }
func (ws *WhileStatement) Span() token.Span     { return ws.Loc }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

// ForStatement -> for x in xs do ... end
type ForStatement struct {
	Token    token.Token
	Variable *Identifier
	Iterable Expression
	Body     *BlockExpression
	Loc      token.Span
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *ForStatement) Span() token.Span     { return fs.Loc }
func (fs *ForStatement) String() string {
	return "for " + fs.Variable.String() + " in " + fs.Iterable.String() + " " + fs.Body.String()
}

// BadStatement marks a statement that was abandoned during recovery. Loc
// covers the tokens discarded while synchronizing. Partial holds whatever
// was parsed before the error, if anything.
type BadStatement struct {
	Token   token.Token
	Partial Statement
	Loc     token.Span
}

func (bs *BadStatement) statementNode()       {}
func (bs *BadStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BadStatement) Span() token.Span     { return bs.Loc }
func (bs *BadStatement) String() string       { return "<bad statement>" }
