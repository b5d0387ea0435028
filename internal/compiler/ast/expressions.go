package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// --- Literals ---

// IntegerLiteral keeps the literal text; conversion to a sized integer is a
// later stage's concern.
type IntegerLiteral struct {
	Token token.Token
	Value string // digits with separators removed, radix prefix kept
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Lexeme }
func (il *IntegerLiteral) Span() token.Span     { return il.Token.Span }
func (il *IntegerLiteral) String() string       { return il.Token.Lexeme }

type FloatLiteral struct {
	Token token.Token
	Value string
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FloatLiteral) Span() token.Span     { return fl.Token.Span }
func (fl *FloatLiteral) String() string       { return fl.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string // escapes decoded
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StringLiteral) Span() token.Span     { return sl.Token.Span }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

type CharLiteral struct {
	Token token.Token
	Value rune
}

func (cl *CharLiteral) expressionNode()      {}
func (cl *CharLiteral) TokenLiteral() string { return cl.Token.Lexeme }
func (cl *CharLiteral) Span() token.Span     { return cl.Token.Span }
func (cl *CharLiteral) String() string       { return strconv.QuoteRune(cl.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Lexeme }
func (bl *BooleanLiteral) Span() token.Span     { return bl.Token.Span }
func (bl *BooleanLiteral) String() string       { return bl.Token.Lexeme }

// UnitLiteral -> ()
type UnitLiteral struct {
	Token token.Token // (
	Loc   token.Span
}

func (ul *UnitLiteral) expressionNode()      {}
func (ul *UnitLiteral) TokenLiteral() string { return ul.Token.Lexeme }
func (ul *UnitLiteral) Span() token.Span     { return ul.Loc }
func (ul *UnitLiteral) String() string       { return "()" }

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) Span() token.Span     { return i.Token.Span }
func (i *Identifier) String() string       { return i.Value }

// ArrayLiteral -> [a, b, c]
type ArrayLiteral struct {
	Token    token.Token // [
	Elements []Expression
	Loc      token.Span
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Lexeme }
func (al *ArrayLiteral) Span() token.Span     { return al.Loc }
func (al *ArrayLiteral) String() string       { return "[" + exprList(al.Elements) + "]" }

// --- Operators ---

type PrefixExpression struct {
	Token    token.Token // the operator
	Operator token.Kind
	Right    Expression
	Loc      token.Span
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PrefixExpression) Span() token.Span     { return pe.Loc }
func (pe *PrefixExpression) String() string {
	op := pe.Token.Lexeme
	if pe.Operator == token.Not {
		op += " "
	}
	return "(" + op + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // the operator
	Operator token.Kind
	Left     Expression
	Right    Expression
	Loc      token.Span
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *InfixExpression) Span() token.Span     { return ie.Loc }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Token.Lexeme + " " + ie.Right.String() + ")"
}

// PostfixExpression -> x++ or x--
type PostfixExpression struct {
	Token    token.Token // the operator
	Operator token.Kind
	Left     Expression
	Loc      token.Span
}

func (pe *PostfixExpression) expressionNode()      {}
func (pe *PostfixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PostfixExpression) Span() token.Span     { return pe.Loc }
func (pe *PostfixExpression) String() string       { return "(" + pe.Left.String() + pe.Token.Lexeme + ")" }

type CallExpression struct {
	Token     token.Token // (
	Function  Expression
	Arguments []Expression
	Loc       token.Span
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CallExpression) Span() token.Span     { return ce.Loc }
func (ce *CallExpression) String() string {
	return ce.Function.String() + "(" + exprList(ce.Arguments) + ")"
}

type IndexExpression struct {
	Token token.Token // [
	Left  Expression
	Index Expression
	Loc   token.Span
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *IndexExpression) Span() token.Span     { return ie.Loc }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// MemberExpression -> value.name
type MemberExpression struct {
	Token token.Token // .
	Left  Expression
	Name  *Identifier
	Loc   token.Span
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Lexeme }
func (me *MemberExpression) Span() token.Span     { return me.Loc }
func (me *MemberExpression) String() string       { return me.Left.String() + "." + me.Name.String() }

// GroupedExpression keeps explicit parentheses so (a+b) and a+b stay
// distinguishable.
type GroupedExpression struct {
	Token      token.Token // (
	Expression Expression
	Loc        token.Span
}

func (ge *GroupedExpression) expressionNode()      {}
func (ge *GroupedExpression) TokenLiteral() string { return ge.Token.Lexeme }
func (ge *GroupedExpression) Span() token.Span     { return ge.Loc }
func (ge *GroupedExpression) String() string       { return ge.Expression.String() }

// --- Compound expressions ---

// BlockExpression -> do statement1 \n statement2 end
type BlockExpression struct {
	Token      token.Token // do
	Statements []Statement
	Loc        token.Span
}

func (be *BlockExpression) expressionNode()      {}
func (be *BlockExpression) TokenLiteral() string { return be.Token.Lexeme }
func (be *BlockExpression) Span() token.Span     { return be.Loc }
func (be *BlockExpression) String() string       { return statementsString(be.Statements) }

// IfExpression -> if cond do ... end else do ... end
type IfExpression struct {
	Token       token.Token // if
	Condition   Expression
	Consequence *BlockExpression
	Alternative Expression // nil, *BlockExpression or *IfExpression
	Loc         token.Span
}

func (ie *IfExpression) expressionNode()      {}
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *IfExpression) Span() token.Span     { return ie.Loc }
func (ie *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if " + ie.Condition.String() + " " + ie.Consequence.String())
	if ie.Alternative != nil {
		out.WriteString(" else " + ie.Alternative.String())
	}
	return out.String()
}

// MatchCase -> pattern => body
type MatchCase struct {
	Token   token.Token // =>
	Pattern Expression
	Body    Expression
	Loc     token.Span
}

func (mc *MatchCase) TokenLiteral() string { return mc.Token.Lexeme }
func (mc *MatchCase) Span() token.Span     { return mc.Loc }
func (mc *MatchCase) String() string       { return mc.Pattern.String() + " => " + mc.Body.String() }

type MatchExpression struct {
	Token token.Token // match
	Value Expression
	Cases []*MatchCase
	Loc   token.Span
}

func (me *MatchExpression) expressionNode()      {}
func (me *MatchExpression) TokenLiteral() string { return me.Token.Lexeme }
func (me *MatchExpression) Span() token.Span     { return me.Loc }
func (me *MatchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("match " + me.Value.String() + " do\n")
	for _, c := range me.Cases {
		out.WriteString("\t" + c.String() + "\n")
	}
	out.WriteString("end")
	return out.String()
}

// FunctionLiteral -> fn(x, y) -> int do ... end
type FunctionLiteral struct {
	Token      token.Token // fn
	Parameters []*Parameter
	ReturnType *TypeNode // nil when omitted
	Body       *BlockExpression
	Loc        token.Span
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FunctionLiteral) Span() token.Span     { return fl.Loc }
func (fl *FunctionLiteral) String() string {
	s := "fn" + paramList(fl.Parameters)
	if fl.ReturnType != nil {
		s += " -> " + fl.ReturnType.String()
	}
	return s + " " + fl.Body.String()
}

// BadExpression marks where an expression failed to parse.
type BadExpression struct {
	Token token.Token // the offending token
	Loc   token.Span
}

func (be *BadExpression) expressionNode()      {}
func (be *BadExpression) TokenLiteral() string { return be.Token.Lexeme }
func (be *BadExpression) Span() token.Span     { return be.Loc }
func (be *BadExpression) String() string       { return "<bad expression>" }

func exprList(exprs []Expression) string {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e.String())
	}
	return strings.Join(out, ", ")
}
