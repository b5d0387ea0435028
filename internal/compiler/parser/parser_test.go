package parser

import (
	"context"
	"testing"

	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
	"github.com/ruka-lang/ruka/internal/compiler/token"
)

// --- Test Helper Functions ---

// checkParserErrors fails the test if parsing reported anything.
func checkParserErrors(t *testing.T, diags []diag.Diagnostic) {
	t.Helper()
	if len(diags) == 0 {
		return
	}

	t.Errorf("parser has %d diagnostics:", len(diags))
	for i, d := range diags {
		t.Errorf("   diagnostic %d: %s", i+1, d)
	}
	t.FailNow()
}

func parse(t *testing.T, input string) (*ast.Program, []diag.Diagnostic) {
	t.Helper()
	program, diags := Parse("test.ruka", input)
	if program == nil {
		t.Fatalf("Parse() returned nil program")
	}
	return program, diags
}

// checkSpans verifies that every node's span lies within its parent's.
func checkSpans(t *testing.T, n ast.Node) {
	t.Helper()
	for _, c := range ast.Children(n) {
		if !n.Span().Contains(c.Span()) {
			t.Errorf("%T span %+v does not contain child %T span %+v", n, n.Span(), c, c.Span())
		}
		checkSpans(t, c)
	}
}

func checkKinds(t *testing.T, diags []diag.Diagnostic, want ...diag.Kind) {
	t.Helper()
	if len(diags) != len(want) {
		t.Fatalf("expected %d diagnostics, got %d: %v", len(want), len(diags), diags)
	}
	for i, d := range diags {
		if d.Kind != want[i] {
			t.Errorf("diagnostic %d: expected kind %s, got %s (%s)", i, want[i], d.Kind, d)
		}
	}
}

// --- Expressions ---

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"a + b - c", "((a + b) - c)"},
		{"-a * b", "((-a) * b)"},
		{"-x.y", "(-x.y)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-a ** b", "((-a) ** b)"},
		{"a or b and c", "(a or (b and c))"},
		{"not a and b", "((not a) and b)"},
		{"a == b < c", "(a == (b < c))"},
		{"x |> f |> g", "((x |> f) |> g)"},
		{"f <| g <| x", "(f <| (g <| x))"},
		{"a + f(b, c)", "(a + f(b, c))"},
		{"xs[1] + 2", "((xs[1]) + 2)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"0..n + 1", "(0 .. (n + 1))"},
		{"a << 1 + 2", "(a << (1 + 2))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"i++ + 1", "((i++) + 1)"},
		{"a <> b <> c", "((a <> b) <> c)"},
		{"a.b.c(1)[2]", "(a.b.c(1)[2])"},
	}

	for _, tt := range tests {
		program, diags := parse(t, tt.input)
		checkParserErrors(t, diags)

		if len(program.Statements) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", tt.input, len(program.Statements))
		}
		if got := program.Statements[0].String(); got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestLiteralValues(t *testing.T) {
	program, diags := parse(t, "a := 1_000\nb := 0xFF\nc := 2.5e3\nd := \"a\\tb\"\ne := '\\n'\nf := true\ng := ()")
	checkParserErrors(t, diags)

	if len(program.Statements) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(program.Statements))
	}
	value := func(i int) ast.Expression {
		t.Helper()
		b, ok := program.Statements[i].(*ast.BindingStatement)
		if !ok {
			t.Fatalf("statement %d is not *ast.BindingStatement. got=%T", i, program.Statements[i])
		}
		return b.Value
	}

	if v := value(0).(*ast.IntegerLiteral).Value; v != "1000" {
		t.Errorf("integer: expected 1000, got %q", v)
	}
	if v := value(1).(*ast.IntegerLiteral).Value; v != "0xFF" {
		t.Errorf("hex integer: expected 0xFF, got %q", v)
	}
	if _, ok := value(2).(*ast.FloatLiteral); !ok {
		t.Errorf("expected *ast.FloatLiteral, got %T", value(2))
	}
	if v := value(3).(*ast.StringLiteral).Value; v != "a\tb" {
		t.Errorf("string: expected %q, got %q", "a\tb", v)
	}
	if v := value(4).(*ast.CharLiteral).Value; v != '\n' {
		t.Errorf("char: expected newline, got %q", v)
	}
	if v := value(5).(*ast.BooleanLiteral).Value; !v {
		t.Errorf("boolean: expected true")
	}
	if _, ok := value(6).(*ast.UnitLiteral); !ok {
		t.Errorf("expected *ast.UnitLiteral, got %T", value(6))
	}
}

// --- Whole programs ---

const wellFormed = `
use std.io as io
pub const limit: int = 10

record Point { x: int, y: int }

variant Shape {
    Circle(float),
    Square(float, float),
    Empty,
}

pub fn area(s: Shape, mut scale: ?float) -> float do
    let total = 0.5
    total = total * 2.0
    return match s do
        Circle(r) => r * r * 3.14
        Square(w, h) => w * h
        Empty => 0.0
    end
end

module geometry do
    fn origin() -> Point do
        return Point(0, 0)
    end
end

test "counting" do
    count := 0
    for i in 0..10 do
        if i % 2 == 0 do
            continue
        end else if i > 8 do
            break
        end
        count++
    end
    if count == 3 do
        count = 0
    end
    else do
        count = 1
    end
    while count > 0 do
        count = count - 1
    end
    defer io.println("done")
    xs := [1, 2, 3]
    xs[0] = 'a'
    f := fn(a, b) do return a + b end
    ok := not false and true
    s := "tab\tquote\""
end
`

func TestWellFormedProgram(t *testing.T) {
	program, diags := parse(t, wellFormed)
	checkParserErrors(t, diags)

	if n := ast.CountBad(program); n != 0 {
		t.Fatalf("expected no error markers, found %d", n)
	}
	checkSpans(t, program)

	wantTypes := []string{
		"*ast.UseDeclaration",
		"*ast.BindingStatement",
		"*ast.RecordDeclaration",
		"*ast.VariantDeclaration",
		"*ast.FunctionDeclaration",
		"*ast.ModuleDeclaration",
		"*ast.TestDeclaration",
	}
	if len(program.Statements) != len(wantTypes) {
		t.Fatalf("expected %d statements, got %d:\n%s", len(wantTypes), len(program.Statements), program)
	}
	for i, want := range wantTypes {
		if got := typeName(program.Statements[i]); got != want {
			t.Errorf("statement %d: expected %s, got %s", i, want, got)
		}
	}

	use := program.Statements[0].(*ast.UseDeclaration)
	if use.DeclName() != "io" || len(use.Path) != 2 {
		t.Errorf("use: expected alias io over 2 segments, got %s", use)
	}

	variant := program.Statements[3].(*ast.VariantDeclaration)
	if len(variant.Cases) != 3 || len(variant.Cases[1].Types) != 2 {
		t.Errorf("variant: unexpected cases %s", variant)
	}

	fn := program.Statements[4].(*ast.FunctionDeclaration)
	if !fn.Public || fn.Name.Value != "area" || len(fn.Parameters) != 2 {
		t.Fatalf("fn: unexpected declaration %s", fn)
	}
	if !fn.Parameters[1].HasMode() || fn.Parameters[1].Type.Kind != ast.TypeOptional {
		t.Errorf("fn: expected 'mut scale: ?float', got %s", fn.Parameters[1])
	}
	if len(fn.Body.Statements) != 3 {
		t.Fatalf("fn body: expected 3 statements, got %d", len(fn.Body.Statements))
	}
	ret := fn.Body.Statements[2].(*ast.ReturnStatement)
	match, ok := ret.ReturnValue.(*ast.MatchExpression)
	if !ok || len(match.Cases) != 3 {
		t.Errorf("expected a 3 case match, got %s", ret.ReturnValue)
	}

	test := program.Statements[6].(*ast.TestDeclaration)
	if test.Name.Value != "counting" {
		t.Errorf("test name: expected counting, got %q", test.Name.Value)
	}
	ifStmt := test.Body.Statements[2].(*ast.ExpressionStatement)
	ifExpr := ifStmt.Expression.(*ast.IfExpression)
	if ifExpr.Alternative == nil {
		t.Errorf("else on the line after 'end' was not attached")
	}
}

func typeName(n ast.Node) string {
	switch n.(type) {
	case *ast.UseDeclaration:
		return "*ast.UseDeclaration"
	case *ast.BindingStatement:
		return "*ast.BindingStatement"
	case *ast.RecordDeclaration:
		return "*ast.RecordDeclaration"
	case *ast.VariantDeclaration:
		return "*ast.VariantDeclaration"
	case *ast.FunctionDeclaration:
		return "*ast.FunctionDeclaration"
	case *ast.ModuleDeclaration:
		return "*ast.ModuleDeclaration"
	case *ast.TestDeclaration:
		return "*ast.TestDeclaration"
	}
	return "other"
}

// --- Errors and recovery ---

func TestMissingExpressionAtEOF(t *testing.T) {
	input := "let x = "
	program, diags := parse(t, input)

	checkKinds(t, diags, diag.ExpectedExpression)
	d := diags[0]
	if d.Span.Start != len(input) || d.Span.End != len(input) {
		t.Errorf("expected diagnostic at end of input, got %+v", d.Span)
	}
	if d.Message() != "expected expression, found end of file" {
		t.Errorf("unexpected message %q", d.Message())
	}

	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	binding, ok := program.Statements[0].(*ast.BindingStatement)
	if !ok {
		t.Fatalf("expected *ast.BindingStatement, got %T", program.Statements[0])
	}
	if _, ok := binding.Value.(*ast.BadExpression); !ok {
		t.Errorf("expected *ast.BadExpression value, got %T", binding.Value)
	}
	if n := ast.CountBad(program); n != 1 {
		t.Errorf("expected exactly 1 error marker, got %d", n)
	}
}

func TestMultilineStringLiteral(t *testing.T) {
	program, diags := parse(t, "let s = \"|multi\n    |line|\"\nlet n = 1")
	checkParserErrors(t, diags)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	b, ok := program.Statements[0].(*ast.BindingStatement)
	if !ok {
		t.Fatalf("expected *ast.BindingStatement, got %T", program.Statements[0])
	}
	lit, ok := b.Value.(*ast.StringLiteral)
	if !ok {
		t.Fatalf("expected *ast.StringLiteral, got %T", b.Value)
	}
	if lit.Value != "multi\nline" {
		t.Errorf("expected %q, got %q", "multi\nline", lit.Value)
	}
}

func TestMultilineStringMissingPrefix(t *testing.T) {
	program, diags := parse(t, "x := \"|abc\ny := 2")

	checkKinds(t, diags, diag.UnterminatedLiteral)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if ast.CountBad(program.Statements[1]) != 0 {
		t.Errorf("second statement should be clean, got %s", program.Statements[1])
	}
}

func TestPanicModeSuppressesCascade(t *testing.T) {
	program, diags := parse(t, "@@@ ; 1 + 1")

	checkKinds(t, diags, diag.ExpectedExpression)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if got := program.Statements[1].String(); got != "(1 + 1)" {
		t.Errorf("statement after recovery: expected (1 + 1), got %q", got)
	}
}

func TestInvalidTokensAreNotReportedTwice(t *testing.T) {
	program, diags := parse(t, "x := \"abc\ny := 2")

	checkKinds(t, diags, diag.UnterminatedLiteral)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if ast.CountBad(program.Statements[0]) == 0 {
		t.Errorf("expected an error marker in the first statement")
	}
	if ast.CountBad(program.Statements[1]) != 0 {
		t.Errorf("second statement should be clean, got %s", program.Statements[1])
	}
}

func TestRecoveryIsBounded(t *testing.T) {
	input := `let a = 1 +* 2
let b = 3
fn f(x: int) -> int do
    return x *
end
let c = (4`

	program, diags := parse(t, input)
	checkKinds(t, diags, diag.ExpectedExpression, diag.ExpectedExpression, diag.UnbalancedDelimiter)

	if len(program.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d:\n%s", len(program.Statements), program)
	}
	for i, wantBad := range []bool{true, false, true, true} {
		if got := ast.CountBad(program.Statements[i]) > 0; got != wantBad {
			t.Errorf("statement %d: error marker present=%v, want %v", i, got, wantBad)
		}
	}
	if _, ok := program.Statements[3].(*ast.BadStatement); !ok {
		t.Errorf("expected the unclosed statement to be wrapped, got %T", program.Statements[3])
	}
	checkSpans(t, program)
}

func TestUnclosedDelimiterInsideBlock(t *testing.T) {
	input := `fn g() do
    let x = (1 +
end
let y = 2`

	program, diags := parse(t, input)
	checkKinds(t, diags, diag.ExpectedExpression)

	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d:\n%s", len(program.Statements), program)
	}
	if _, ok := program.Statements[0].(*ast.FunctionDeclaration); !ok {
		t.Errorf("expected the function to survive, got %T", program.Statements[0])
	}
	if got := program.Statements[1].String(); got != "let y = 2" {
		t.Errorf("expected 'let y = 2', got %q", got)
	}
}

func TestUnclosedCallAtEOF(t *testing.T) {
	program, diags := parse(t, "f(1, 2")

	checkKinds(t, diags, diag.UnbalancedDelimiter)
	bad, ok := program.Statements[0].(*ast.BadStatement)
	if !ok {
		t.Fatalf("expected *ast.BadStatement, got %T", program.Statements[0])
	}
	if bad.Partial == nil {
		t.Errorf("expected the partial call to be kept")
	}
}

func TestStrayCloser(t *testing.T) {
	program, diags := parse(t, ")\nx")

	checkKinds(t, diags, diag.UnbalancedDelimiter)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if got := program.Statements[1].String(); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
}

func TestMissingTerminator(t *testing.T) {
	program, diags := parse(t, "a b")

	checkKinds(t, diags, diag.UnexpectedToken)
	if d := diags[0]; d.Message() != "expected ';' or newline after statement, found 'b'" {
		t.Errorf("unexpected message %q", d.Message())
	}
	if _, ok := program.Statements[0].(*ast.BadStatement); !ok {
		t.Errorf("expected *ast.BadStatement, got %T", program.Statements[0])
	}
}

func TestPubRequiresDeclaration(t *testing.T) {
	_, diags := parse(t, "pub 1\nlet x = 1")
	checkKinds(t, diags, diag.ExpectedToken)
}

func TestSyncSet(t *testing.T) {
	input := "let a = @ let b = 1; c"

	program, diags := parse(t, input)
	checkKinds(t, diags, diag.ExpectedExpression)
	if len(program.Statements) != 3 {
		t.Errorf("default sync set: expected 3 statements, got %d", len(program.Statements))
	}

	program, diags = Parse("test.ruka", input, WithSyncSet(NewSyncSet(token.Semicolon)))
	checkKinds(t, diags, diag.ExpectedExpression)
	if len(program.Statements) != 2 {
		t.Errorf("semicolon sync set: expected 2 statements, got %d", len(program.Statements))
	}
}

func TestNoErrorsMeansNoMarkers(t *testing.T) {
	inputs := []string{
		"",
		"\n\n;;\n",
		"x := 1; y := 2",
		"fn f() do end",
		"if a do b end else do c end",
		"while true do break end",
	}
	for _, input := range inputs {
		program, diags := parse(t, input)
		if diag.HasErrors(diags) {
			t.Errorf("%q: unexpected diagnostics %v", input, diags)
			continue
		}
		if n := ast.CountBad(program); n != 0 {
			t.Errorf("%q: %d error markers without an error", input, n)
		}
		checkSpans(t, program)
	}
}

func TestReporterStreamsDiagnostics(t *testing.T) {
	var streamed []diag.Diagnostic
	r := diag.ReporterFunc(func(d diag.Diagnostic) { streamed = append(streamed, d) })

	_, diags := Parse("test.ruka", "let a = $\nlet b = \"open", WithReporter(r))
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %v", len(diags), diags)
	}
	if len(streamed) != len(diags) {
		t.Errorf("expected %d streamed diagnostics, got %d", len(diags), len(streamed))
	}
	if diags[0].Span.Start > diags[1].Span.Start {
		t.Errorf("diagnostics are not ordered by position: %v", diags)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewParser(lexer.NewLexer("let a = 1\nlet b = 2", nil), WithContext(ctx))
	program := p.ParseProgram()
	if !p.Canceled() {
		t.Errorf("expected parser to report cancellation")
	}
	if len(program.Statements) != 0 {
		t.Errorf("expected no statements after cancellation, got %d", len(program.Statements))
	}
}

func TestParserIsReusableAcrossSources(t *testing.T) {
	// Two parsers over the same text produce the same tree.
	a, _ := parse(t, wellFormed)
	b, _ := parse(t, wellFormed)
	if a.String() != b.String() {
		t.Errorf("parsing is not deterministic")
	}
}
