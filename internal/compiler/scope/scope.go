package scope

import (
	"fmt"
	"slices"

	"github.com/ruka-lang/ruka/internal/compiler/symbols"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// --- Scope ---

// Scope is one lexical level of a unit: the unit itself, a module, a
// function or a block. Children are kept in source order.
type Scope struct {
	Name     string
	Span     token.Span
	Outer    *Scope
	Children []*Scope

	symbols map[string]symbols.SymbolInfo
}

// NewScope creates a level nested in outer, or a root when outer is nil.
func NewScope(outer *Scope, name string, span token.Span) *Scope {
	s := &Scope{
		Name:    name,
		Span:    span,
		Outer:   outer,
		symbols: make(map[string]symbols.SymbolInfo),
	}
	if outer != nil {
		outer.Children = append(outer.Children, s)
	}
	return s
}

// Define adds info to this level only. A name already declared at this
// level keeps its first declaration and the error points at it.
func (s *Scope) Define(info symbols.SymbolInfo) error {
	if prev, exists := s.symbols[info.Name]; exists {
		return fmt.Errorf("'%s' is already declared in this scope at %s", info.Name, prev.Span)
	}
	s.symbols[info.Name] = info
	return nil
}

// Lookup searches this level and then each enclosing one.
func (s *Scope) Lookup(name string) (*symbols.SymbolInfo, bool) {
	for scope := s; scope != nil; scope = scope.Outer {
		if info, ok := scope.LookupCurrentScope(name); ok {
			return info, true
		}
	}
	return nil, false
}

// LookupCurrentScope checks this level only. The result is a copy.
func (s *Scope) LookupCurrentScope(name string) (*symbols.SymbolInfo, bool) {
	info, ok := s.symbols[name]
	if !ok {
		return nil, false
	}
	return &info, true
}

func (s *Scope) Len() int { return len(s.symbols) }

// Sorted returns the symbols of this level in declaration order.
func (s *Scope) Sorted() []symbols.SymbolInfo {
	out := make([]symbols.SymbolInfo, 0, len(s.symbols))
	for _, info := range s.symbols {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b symbols.SymbolInfo) int {
		return a.Span.Start - b.Span.Start
	})
	return out
}

// Innermost returns the deepest level whose span holds offset, or s itself
// when no child does.
func (s *Scope) Innermost(offset int) *Scope {
	for _, c := range s.Children {
		if c.Span.Start <= offset && offset < c.Span.End {
			return c.Innermost(offset)
		}
	}
	return s
}

// Resolve looks name up as seen from the given source offset. Declaration
// order inside a level is not taken into account.
func (s *Scope) Resolve(name string, offset int) (*symbols.SymbolInfo, bool) {
	return s.Innermost(offset).Lookup(name)
}
