package ast

import (
	"bytes"
	"strings"

	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// FunctionDeclaration -> fn name(params) -> type do body end
type FunctionDeclaration struct {
	Token      token.Token // fn
	Public     bool
	Name       *Identifier
	Parameters []*Parameter
	ReturnType *TypeNode // nil when omitted
	Body       *BlockExpression
	Loc        token.Span
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) declarationNode()     {}
func (fd *FunctionDeclaration) DeclName() string     { return fd.Name.Value }
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Lexeme }
func (fd *FunctionDeclaration) Span() token.Span     { return fd.Loc }
func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer
	if fd.Public {
		out.WriteString("pub ")
	}
	out.WriteString("fn " + fd.Name.String() + paramList(fd.Parameters))
	if fd.ReturnType != nil {
		out.WriteString(" -> " + fd.ReturnType.String())
	}
	out.WriteString(" " + fd.Body.String())
	return out.String()
}

// Field -> name: type
type Field struct {
	Name *Identifier
	Type *TypeNode
	Loc  token.Span
}

func (f *Field) TokenLiteral() string { return f.Name.TokenLiteral() }
func (f *Field) Span() token.Span     { return f.Loc }
func (f *Field) String() string       { return f.Name.String() + ": " + f.Type.String() }

// RecordDeclaration -> record Point { x: int, y: int }
type RecordDeclaration struct {
	Token  token.Token // record
	Public bool
	Name   *Identifier
	Fields []*Field
	Loc    token.Span
}

func (rd *RecordDeclaration) statementNode()       {}
func (rd *RecordDeclaration) declarationNode()     {}
func (rd *RecordDeclaration) DeclName() string     { return rd.Name.Value }
func (rd *RecordDeclaration) TokenLiteral() string { return rd.Token.Lexeme }
func (rd *RecordDeclaration) Span() token.Span     { return rd.Loc }
func (rd *RecordDeclaration) String() string {
	fields := make([]string, 0, len(rd.Fields))
	for _, f := range rd.Fields {
		fields = append(fields, f.String())
	}
	return pubPrefix(rd.Public) + "record " + rd.Name.String() + " { " + strings.Join(fields, ", ") + " }"
}

// VariantCase -> Some(int) or None
type VariantCase struct {
	Name  *Identifier
	Types []*TypeNode
	Loc   token.Span
}

func (vc *VariantCase) TokenLiteral() string { return vc.Name.TokenLiteral() }
func (vc *VariantCase) Span() token.Span     { return vc.Loc }
func (vc *VariantCase) String() string {
	if len(vc.Types) == 0 {
		return vc.Name.String()
	}
	types := make([]string, 0, len(vc.Types))
	for _, t := range vc.Types {
		types = append(types, t.String())
	}
	return vc.Name.String() + "(" + strings.Join(types, ", ") + ")"
}

// VariantDeclaration -> variant Option { Some(int), None }
type VariantDeclaration struct {
	Token  token.Token // variant
	Public bool
	Name   *Identifier
	Cases  []*VariantCase
	Loc    token.Span
}

func (vd *VariantDeclaration) statementNode()       {}
func (vd *VariantDeclaration) declarationNode()     {}
func (vd *VariantDeclaration) DeclName() string     { return vd.Name.Value }
func (vd *VariantDeclaration) TokenLiteral() string { return vd.Token.Lexeme }
func (vd *VariantDeclaration) Span() token.Span     { return vd.Loc }
func (vd *VariantDeclaration) String() string {
	cases := make([]string, 0, len(vd.Cases))
	for _, c := range vd.Cases {
		cases = append(cases, c.String())
	}
	return pubPrefix(vd.Public) + "variant " + vd.Name.String() + " { " + strings.Join(cases, ", ") + " }"
}

// ModuleDeclaration -> module name do items end
type ModuleDeclaration struct {
	Token  token.Token // module
	Public bool
	Name   *Identifier
	Body   []Statement
	Loc    token.Span
}

func (md *ModuleDeclaration) statementNode()       {}
func (md *ModuleDeclaration) declarationNode()     {}
func (md *ModuleDeclaration) DeclName() string     { return md.Name.Value }
func (md *ModuleDeclaration) TokenLiteral() string { return md.Token.Lexeme }
func (md *ModuleDeclaration) Span() token.Span     { return md.Loc }
func (md *ModuleDeclaration) String() string {
	return pubPrefix(md.Public) + "module " + md.Name.String() + " " + statementsString(md.Body)
}

// UseDeclaration -> use std.io as io
type UseDeclaration struct {
	Token  token.Token // use
	Public bool
	Path   []*Identifier
	Alias  *Identifier // nil when omitted
	Loc    token.Span
}

func (ud *UseDeclaration) statementNode()   {}
func (ud *UseDeclaration) declarationNode() {}

// DeclName is the alias if one was given, otherwise the last path segment.
func (ud *UseDeclaration) DeclName() string {
	if ud.Alias != nil {
		return ud.Alias.Value
	}
	return ud.Path[len(ud.Path)-1].Value
}
func (ud *UseDeclaration) TokenLiteral() string { return ud.Token.Lexeme }
func (ud *UseDeclaration) Span() token.Span     { return ud.Loc }
func (ud *UseDeclaration) String() string {
	s := pubPrefix(ud.Public) + "use " + joinIdents(ud.Path, ".")
	if ud.Alias != nil {
		s += " as " + ud.Alias.String()
	}
	return s
}

// TestDeclaration -> test "name" do ... end
type TestDeclaration struct {
	Token token.Token // test
	Name  *StringLiteral
	Body  *BlockExpression
	Loc   token.Span
}

func (td *TestDeclaration) statementNode()       {}
func (td *TestDeclaration) declarationNode()     {}
func (td *TestDeclaration) DeclName() string     { return td.Name.Value }
func (td *TestDeclaration) TokenLiteral() string { return td.Token.Lexeme }
func (td *TestDeclaration) Span() token.Span     { return td.Loc }
func (td *TestDeclaration) String() string {
	return "test " + td.Name.String() + " " + td.Body.String()
}

func pubPrefix(public bool) string {
	if public {
		return "pub "
	}
	return ""
}
