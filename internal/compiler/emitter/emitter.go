// Package emitter renders a parsed unit as an S-expression tree, one
// statement per line with nested blocks indented beneath their owner.
// Error markers are rendered as (bad) so partial trees stay readable.
package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

const indentUnit = "  "

type Emitter struct {
	builder strings.Builder
	errors  []string
	indent  int
	spans   bool // annotate every head with @line:col
}

type Option func(*Emitter)

// WithSpans annotates each node with its starting line and column.
func WithSpans() Option {
	return func(e *Emitter) { e.spans = true }
}

func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{errors: []string{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Emitter) addError(format string, args ...any) {
	e.errors = append(e.errors, fmt.Sprintf(format, args...))
}

// Errors lists nodes the emitter did not know how to render.
func (e *Emitter) Errors() []string {
	return e.errors
}

// Emit renders the whole program.
func (e *Emitter) Emit(program *ast.Program) string {
	e.builder.Reset()
	e.indent = 0

	e.open("program", program.Loc)
	e.write(" " + strconv.Quote(program.Name))
	e.indent++
	for _, stmt := range program.Statements {
		e.emitStatement(stmt)
	}
	e.indent--
	e.close()
	e.write("\n")
	return e.builder.String()
}

// Expression renders a single expression on one line unless it holds a
// block.
func Expression(expr ast.Expression) string {
	e := NewEmitter()
	e.emitExpression(expr)
	return e.builder.String()
}

// --- Emit Helpers ---

func (e *Emitter) write(s string) { e.builder.WriteString(s) }

func (e *Emitter) newline() {
	e.write("\n" + strings.Repeat(indentUnit, e.indent))
}

func (e *Emitter) open(head string, span token.Span) {
	e.write("(" + head)
	if e.spans {
		e.write("@" + span.String())
	}
}

func (e *Emitter) close() { e.write(")") }

// atom writes a leaf node such as (int 42).
func (e *Emitter) atom(head string, span token.Span, value string) {
	e.open(head, span)
	e.write(" " + value)
	e.close()
}

func (e *Emitter) flags(public bool, mode token.Token) {
	if public {
		e.write(" :pub")
	}
	if mode.Kind.IsMode() {
		e.write(" :" + mode.Lexeme)
	}
}

func typeString(t *ast.TypeNode) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// --- Statements ---

func (e *Emitter) emitStatement(stmt ast.Statement) {
	e.newline()

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		e.emitExpression(s.Expression)

	case *ast.BindingStatement:
		head := "let"
		switch {
		case s.IsDefine():
			head = "define"
		case s.IsConst():
			head = "const"
		}
		e.open(head, s.Loc)
		e.flags(s.Public, s.Mode)
		e.write(" " + s.Name.Value)
		if s.Type != nil {
			e.write(" (type " + typeString(s.Type) + ")")
		}
		e.write(" ")
		e.emitExpression(s.Value)
		e.close()

	case *ast.AssignmentStatement:
		e.open("assign", s.Loc)
		e.write(" ")
		e.emitExpression(s.Target)
		e.write(" ")
		e.emitExpression(s.Value)
		e.close()

	case *ast.ReturnStatement:
		e.open("return", s.Loc)
		if s.ReturnValue != nil {
			e.write(" ")
			e.emitExpression(s.ReturnValue)
		}
		e.close()

	case *ast.BreakStatement:
		e.open("break", s.Span())
		e.close()

	case *ast.ContinueStatement:
		e.open("continue", s.Span())
		e.close()

	case *ast.DeferStatement:
		e.open("defer", s.Loc)
		e.write(" ")
		e.emitExpression(s.Value)
		e.close()

	case *ast.WhileStatement:
		e.open("while", s.Loc)
		e.write(" ")
		e.emitExpression(s.Condition)
		e.write(" ")
		e.emitBlock(s.Body)
		e.close()

	case *ast.ForStatement:
		e.open("for", s.Loc)
		e.write(" " + s.Variable.Value + " ")
		e.emitExpression(s.Iterable)
		e.write(" ")
		e.emitBlock(s.Body)
		e.close()

	case *ast.FunctionDeclaration:
		e.open("fn", s.Loc)
		e.flags(s.Public, token.Token{})
		e.write(" " + s.Name.Value + " ")
		e.emitSignature(s.Parameters, s.ReturnType)
		e.write(" ")
		e.emitBlock(s.Body)
		e.close()

	case *ast.RecordDeclaration:
		e.open("record", s.Loc)
		e.flags(s.Public, token.Token{})
		e.write(" " + s.Name.Value)
		for _, f := range s.Fields {
			e.write(" ")
			e.atom("field", f.Loc, f.Name.Value+" "+typeString(f.Type))
		}
		e.close()

	case *ast.VariantDeclaration:
		e.open("variant", s.Loc)
		e.flags(s.Public, token.Token{})
		e.write(" " + s.Name.Value)
		for _, c := range s.Cases {
			e.write(" ")
			e.open("case", c.Loc)
			e.write(" " + c.Name.Value)
			for _, t := range c.Types {
				e.write(" " + typeString(t))
			}
			e.close()
		}
		e.close()

	case *ast.ModuleDeclaration:
		e.open("module", s.Loc)
		e.flags(s.Public, token.Token{})
		e.write(" " + s.Name.Value)
		e.indent++
		for _, inner := range s.Body {
			e.emitStatement(inner)
		}
		e.indent--
		e.close()

	case *ast.UseDeclaration:
		e.open("use", s.Loc)
		e.flags(s.Public, token.Token{})
		path := make([]string, 0, len(s.Path))
		for _, id := range s.Path {
			path = append(path, id.Value)
		}
		e.write(" " + strings.Join(path, "."))
		if s.Alias != nil {
			e.write(" as " + s.Alias.Value)
		}
		e.close()

	case *ast.TestDeclaration:
		e.open("test", s.Loc)
		e.write(" " + strconv.Quote(s.Name.Value) + " ")
		e.emitBlock(s.Body)
		e.close()

	case *ast.BadStatement:
		e.open("bad", s.Loc)
		e.close()

	default:
		e.addError("unsupported statement %T", stmt)
		e.write("(?)")
	}
}

func (e *Emitter) emitSignature(params []*ast.Parameter, result *ast.TypeNode) {
	e.write("(params")
	for _, p := range params {
		e.write(" ")
		e.open("param", p.Loc)
		e.flags(false, p.Mode)
		e.write(" " + p.Name.Value)
		if p.Type != nil {
			e.write(" " + typeString(p.Type))
		}
		e.close()
	}
	e.write(")")
	if result != nil {
		e.write(" (returns " + typeString(result) + ")")
	}
}

// emitBlock writes (do ...) with each statement on its own indented line.
func (e *Emitter) emitBlock(block *ast.BlockExpression) {
	e.open("do", block.Loc)
	e.indent++
	for _, stmt := range block.Statements {
		e.emitStatement(stmt)
	}
	e.indent--
	e.close()
}

// --- Expressions ---

func (e *Emitter) emitExpression(expr ast.Expression) {
	switch x := expr.(type) {
	case *ast.IntegerLiteral:
		e.atom("int", x.Span(), x.Value)
	case *ast.FloatLiteral:
		e.atom("float", x.Span(), x.Value)
	case *ast.StringLiteral:
		e.atom("string", x.Span(), strconv.Quote(x.Value))
	case *ast.CharLiteral:
		e.atom("char", x.Span(), strconv.QuoteRune(x.Value))
	case *ast.BooleanLiteral:
		e.atom("bool", x.Span(), strconv.FormatBool(x.Value))
	case *ast.UnitLiteral:
		e.open("unit", x.Loc)
		e.close()
	case *ast.Identifier:
		e.atom("ident", x.Span(), x.Value)

	case *ast.ArrayLiteral:
		e.open("array", x.Loc)
		e.emitList(x.Elements)
		e.close()

	case *ast.PrefixExpression:
		e.open("prefix", x.Loc)
		e.write(" " + x.Token.Lexeme + " ")
		e.emitExpression(x.Right)
		e.close()

	case *ast.InfixExpression:
		e.open("infix", x.Loc)
		e.write(" " + x.Token.Lexeme + " ")
		e.emitExpression(x.Left)
		e.write(" ")
		e.emitExpression(x.Right)
		e.close()

	case *ast.PostfixExpression:
		e.open("postfix", x.Loc)
		e.write(" " + x.Token.Lexeme + " ")
		e.emitExpression(x.Left)
		e.close()

	case *ast.CallExpression:
		e.open("call", x.Loc)
		e.write(" ")
		e.emitExpression(x.Function)
		e.emitList(x.Arguments)
		e.close()

	case *ast.IndexExpression:
		e.open("index", x.Loc)
		e.write(" ")
		e.emitExpression(x.Left)
		e.write(" ")
		e.emitExpression(x.Index)
		e.close()

	case *ast.MemberExpression:
		e.open("member", x.Loc)
		e.write(" ")
		e.emitExpression(x.Left)
		e.write(" " + x.Name.Value)
		e.close()

	case *ast.GroupedExpression:
		e.emitExpression(x.Expression)

	case *ast.BlockExpression:
		e.emitBlock(x)

	case *ast.IfExpression:
		e.open("if", x.Loc)
		e.write(" ")
		e.emitExpression(x.Condition)
		e.write(" ")
		e.emitBlock(x.Consequence)
		if x.Alternative != nil {
			e.write(" ")
			e.emitExpression(x.Alternative)
		}
		e.close()

	case *ast.MatchExpression:
		e.open("match", x.Loc)
		e.write(" ")
		e.emitExpression(x.Value)
		e.indent++
		for _, c := range x.Cases {
			e.newline()
			e.open("case", c.Loc)
			e.write(" ")
			e.emitExpression(c.Pattern)
			e.write(" ")
			e.emitExpression(c.Body)
			e.close()
		}
		e.indent--
		e.close()

	case *ast.FunctionLiteral:
		e.open("fn", x.Loc)
		e.write(" ")
		e.emitSignature(x.Parameters, x.ReturnType)
		e.write(" ")
		e.emitBlock(x.Body)
		e.close()

	case *ast.BadExpression:
		e.open("bad", x.Loc)
		e.close()

	default:
		e.addError("unsupported expression %T", expr)
		e.write("(?)")
	}
}

func (e *Emitter) emitList(exprs []ast.Expression) {
	for _, x := range exprs {
		e.write(" ")
		e.emitExpression(x)
	}
}
