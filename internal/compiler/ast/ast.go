package ast

import (
	"bytes"
	"strings"

	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// --- Interfaces ---
type Node interface {
	TokenLiteral() string
	String() string
	Span() token.Span
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Declaration is a statement that introduces a named item.
type Declaration interface {
	Statement
	declarationNode()
	DeclName() string
}

// --- Program ---

// Program is the root of every parsed unit.
type Program struct {
	Name       string
	Statements []Statement
	Loc        token.Span
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Span() token.Span { return p.Loc }

// String for Program concatenates the string representations of its statements
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// --- Shared pieces ---

// TypeKind distinguishes the shapes a TypeNode can take.
type TypeKind int

const (
	TypeNamed    TypeKind = iota // a.b.C
	TypeSlice                    // []T
	TypeOptional                 // ?T
	TypeFunction                 // fn(A, B) -> C
	TypeBad                      // error marker
)

type TypeNode struct {
	Token  token.Token // first token of the type
	Kind   TypeKind
	Path   []*Identifier // TypeNamed
	Elem   *TypeNode     // TypeSlice, TypeOptional
	Params []*TypeNode   // TypeFunction
	Result *TypeNode     // TypeFunction, optional
	Loc    token.Span
}

func (tn *TypeNode) TokenLiteral() string { return tn.Token.Lexeme }
func (tn *TypeNode) Span() token.Span     { return tn.Loc }
func (tn *TypeNode) String() string {
	switch tn.Kind {
	case TypeNamed:
		return joinIdents(tn.Path, ".")
	case TypeSlice:
		return "[]" + tn.Elem.String()
	case TypeOptional:
		return "?" + tn.Elem.String()
	case TypeFunction:
		params := make([]string, 0, len(tn.Params))
		for _, p := range tn.Params {
			params = append(params, p.String())
		}
		s := "fn(" + strings.Join(params, ", ") + ")"
		if tn.Result != nil {
			s += " -> " + tn.Result.String()
		}
		return s
	}
	return "<bad type>"
}

// Parameter -> mut x: int
type Parameter struct {
	Mode token.Token // zero unless a mode keyword was given
	Name *Identifier
	Type *TypeNode // nil when omitted
	Loc  token.Span
}

func (p *Parameter) TokenLiteral() string { return p.Name.TokenLiteral() }
func (p *Parameter) Span() token.Span     { return p.Loc }
func (p *Parameter) HasMode() bool        { return p.Mode.Kind.IsMode() }
func (p *Parameter) String() string {
	var out bytes.Buffer
	if p.HasMode() {
		out.WriteString(p.Mode.Lexeme + " ")
	}
	out.WriteString(p.Name.String())
	if p.Type != nil {
		out.WriteString(": " + p.Type.String())
	}
	return out.String()
}

func paramList(params []*Parameter) string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.String())
	}
	return "(" + strings.Join(out, ", ") + ")"
}

func joinIdents(ids []*Identifier, sep string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Value)
	}
	return strings.Join(out, sep)
}

func statementsString(stmts []Statement) string {
	var out bytes.Buffer
	out.WriteString("do\n")
	for _, s := range stmts {
		for _, line := range strings.Split(s.String(), "\n") {
			out.WriteString("\t" + line + "\n")
		}
	}
	out.WriteString("end")
	return out.String()
}
