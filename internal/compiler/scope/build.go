package scope

import (
	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/symbols"
)

type builder struct {
	reporter diag.Reporter
}

// Build indexes the declarations of prog and returns the unit's top-level
// scope. Bindings and parameters inside blocks are recorded in nested
// scopes reachable through Children. A name declared twice in the same scope
// gets a duplicate-declaration warning at the second declaration and the
// first one is kept. Shadowing an outer name is allowed.
func Build(prog *ast.Program, r diag.Reporter) *Scope {
	if r == nil {
		r = diag.Discard
	}
	b := &builder{reporter: r}
	global := NewScope(nil, prog.Name, prog.Loc)
	b.visitStatements(prog.Statements, global)
	return global
}

func (b *builder) visitStatements(stmts []ast.Statement, s *Scope) {
	for _, stmt := range stmts {
		if decl, ok := stmt.(ast.Declaration); ok {
			b.declare(s, decl)
		}
		b.visit(stmt, s)
	}
}

func (b *builder) visit(n ast.Node, s *Scope) {
	switch n := n.(type) {
	case *ast.FunctionDeclaration:
		inner := NewScope(s, n.Name.Value, n.Span())
		b.declareParams(inner, n.Parameters)
		b.visitStatements(n.Body.Statements, inner)

	case *ast.FunctionLiteral:
		inner := NewScope(s, s.Name, n.Span())
		b.declareParams(inner, n.Parameters)
		b.visitStatements(n.Body.Statements, inner)

	case *ast.ModuleDeclaration:
		b.visitStatements(n.Body, NewScope(s, n.Name.Value, n.Span()))

	case *ast.TestDeclaration:
		b.visitStatements(n.Body.Statements, NewScope(s, s.Name, n.Span()))

	case *ast.BlockExpression:
		b.visitStatements(n.Statements, NewScope(s, s.Name, n.Span()))

	case *ast.ForStatement:
		b.visit(n.Iterable, s)
		inner := NewScope(s, s.Name, n.Span())
		b.define(inner, symbols.SymbolInfo{Name: n.Variable.Value, Kind: symbols.Binding, Span: n.Variable.Span()})
		b.visitStatements(n.Body.Statements, inner)

	default:
		for _, c := range ast.Children(n) {
			b.visit(c, s)
		}
	}
}

func (b *builder) declareParams(s *Scope, params []*ast.Parameter) {
	for _, p := range params {
		info := symbols.SymbolInfo{Name: p.Name.Value, Kind: symbols.Parameter, Span: p.Name.Span()}
		if p.HasMode() {
			info.Mode = p.Mode.Lexeme
		}
		if p.Type != nil {
			info.Type = p.Type.String()
		}
		b.define(s, info)
	}
}

// declare records a declaration statement in s. Tests are not named
// symbols and are skipped.
func (b *builder) declare(s *Scope, decl ast.Declaration) {
	var info symbols.SymbolInfo

	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		info = symbols.SymbolInfo{Name: d.Name.Value, Kind: symbols.Function, Span: d.Name.Span(), Public: d.Public}
		for _, p := range d.Parameters {
			info.ParamNames = append(info.ParamNames, p.Name.Value)
			typ := ""
			if p.Type != nil {
				typ = p.Type.String()
			}
			info.ParamTypes = append(info.ParamTypes, typ)
		}
		if d.ReturnType != nil {
			info.ReturnType = d.ReturnType.String()
		}
	case *ast.RecordDeclaration:
		info = symbols.SymbolInfo{Name: d.Name.Value, Kind: symbols.Record, Span: d.Name.Span(), Public: d.Public}
		for _, f := range d.Fields {
			info.Members = append(info.Members, f.Name.Value)
		}
	case *ast.VariantDeclaration:
		info = symbols.SymbolInfo{Name: d.Name.Value, Kind: symbols.Variant, Span: d.Name.Span(), Public: d.Public}
		for _, c := range d.Cases {
			info.Members = append(info.Members, c.Name.Value)
		}
	case *ast.ModuleDeclaration:
		info = symbols.SymbolInfo{Name: d.Name.Value, Kind: symbols.Module, Span: d.Name.Span(), Public: d.Public}
	case *ast.UseDeclaration:
		span := d.Path[len(d.Path)-1].Span()
		if d.Alias != nil {
			span = d.Alias.Span()
		}
		info = symbols.SymbolInfo{Name: d.DeclName(), Kind: symbols.Import, Span: span, Public: d.Public}
	case *ast.BindingStatement:
		kind := symbols.Binding
		if d.IsConst() {
			kind = symbols.Constant
		}
		info = symbols.SymbolInfo{Name: d.Name.Value, Kind: kind, Span: d.Name.Span(), Public: d.Public}
		if d.Mode.Kind.IsMode() {
			info.Mode = d.Mode.Lexeme
		}
		if d.Type != nil {
			info.Type = d.Type.String()
		}
	default:
		return
	}

	b.define(s, info)
}

func (b *builder) define(s *Scope, info symbols.SymbolInfo) {
	if err := s.Define(info); err != nil {
		b.reporter.Report(diag.Warningf(diag.DuplicateDeclaration, info.Span, "%v", err))
	}
}
