package ast

// Children returns the direct children of n in source order. Optional
// children that are absent are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) { out = append(out, c) }
	addType := func(t *TypeNode) {
		if t != nil {
			add(t)
		}
	}
	addExprs := func(es []Expression) {
		for _, e := range es {
			add(e)
		}
	}
	addStmts := func(ss []Statement) {
		for _, s := range ss {
			add(s)
		}
	}
	addParams := func(ps []*Parameter) {
		for _, p := range ps {
			add(p)
		}
	}

	switch n := n.(type) {
	case *Program:
		addStmts(n.Statements)

	// Expressions
	case *IntegerLiteral, *FloatLiteral, *StringLiteral, *CharLiteral,
		*BooleanLiteral, *UnitLiteral, *Identifier, *BadExpression:
	case *ArrayLiteral:
		addExprs(n.Elements)
	case *PrefixExpression:
		add(n.Right)
	case *InfixExpression:
		add(n.Left)
		add(n.Right)
	case *PostfixExpression:
		add(n.Left)
	case *CallExpression:
		add(n.Function)
		addExprs(n.Arguments)
	case *IndexExpression:
		add(n.Left)
		add(n.Index)
	case *MemberExpression:
		add(n.Left)
		add(n.Name)
	case *GroupedExpression:
		add(n.Expression)
	case *BlockExpression:
		addStmts(n.Statements)
	case *IfExpression:
		add(n.Condition)
		add(n.Consequence)
		if n.Alternative != nil {
			add(n.Alternative)
		}
	case *MatchExpression:
		add(n.Value)
		for _, c := range n.Cases {
			add(c)
		}
	case *MatchCase:
		add(n.Pattern)
		add(n.Body)
	case *FunctionLiteral:
		addParams(n.Parameters)
		addType(n.ReturnType)
		add(n.Body)

	// Statements
	case *BreakStatement, *ContinueStatement:
	case *BadStatement:
		if n.Partial != nil {
			add(n.Partial)
		}
	case *ExpressionStatement:
		add(n.Expression)
	case *BindingStatement:
		add(n.Name)
		addType(n.Type)
		add(n.Value)
	case *AssignmentStatement:
		add(n.Target)
		add(n.Value)
	case *ReturnStatement:
		if n.ReturnValue != nil {
			add(n.ReturnValue)
		}
	case *DeferStatement:
		add(n.Value)
	case *WhileStatement:
		add(n.Condition)
		add(n.Body)
	case *ForStatement:
		add(n.Variable)
		add(n.Iterable)
		add(n.Body)

	// Declarations
	case *FunctionDeclaration:
		add(n.Name)
		addParams(n.Parameters)
		addType(n.ReturnType)
		add(n.Body)
	case *RecordDeclaration:
		add(n.Name)
		for _, f := range n.Fields {
			add(f)
		}
	case *Field:
		add(n.Name)
		add(n.Type)
	case *VariantDeclaration:
		add(n.Name)
		for _, c := range n.Cases {
			add(c)
		}
	case *VariantCase:
		add(n.Name)
		for _, t := range n.Types {
			add(t)
		}
	case *ModuleDeclaration:
		add(n.Name)
		addStmts(n.Body)
	case *UseDeclaration:
		for _, id := range n.Path {
			add(id)
		}
		if n.Alias != nil {
			add(n.Alias)
		}
	case *TestDeclaration:
		add(n.Name)
		add(n.Body)

	// Shared pieces
	case *Parameter:
		add(n.Name)
		addType(n.Type)
	case *TypeNode:
		for _, id := range n.Path {
			add(id)
		}
		addType(n.Elem)
		for _, p := range n.Params {
			add(p)
		}
		addType(n.Result)
	}
	return out
}

// Inspect traverses the tree rooted at n depth-first. If f returns false
// the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// IsBad reports whether n is an error marker.
func IsBad(n Node) bool {
	switch n := n.(type) {
	case *BadExpression, *BadStatement:
		return true
	case *TypeNode:
		return n.Kind == TypeBad
	}
	return false
}

// CountBad returns the number of error markers reachable from n.
func CountBad(n Node) int {
	count := 0
	Inspect(n, func(n Node) bool {
		if IsBad(n) {
			count++
		}
		return true
	})
	return count
}
