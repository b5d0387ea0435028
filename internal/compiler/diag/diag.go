// Package diag holds the diagnostics produced while scanning and parsing a
// compilation unit, and the Reporter interface they are delivered through.
package diag

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/ruka-lang/ruka/internal/compiler/token"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Kind categorises a diagnostic. The set is closed.
type Kind string

const (
	// Lexical
	InvalidCharacter     Kind = "invalid-character"
	UnterminatedLiteral  Kind = "unterminated-literal"
	InvalidNumberLiteral Kind = "invalid-number-literal"
	InvalidCharLiteral   Kind = "invalid-char-literal"
	InvalidEscape        Kind = "invalid-escape"

	// Syntax
	UnexpectedToken      Kind = "unexpected-token"
	ExpectedToken        Kind = "expected-token"
	ExpectedExpression   Kind = "expected-expression"
	UnbalancedDelimiter  Kind = "unbalanced-delimiter"
	DuplicateDeclaration Kind = "duplicate-declaration"

	// Unit-level
	UnreadableSource Kind = "unreadable-source"
	InvalidEncoding  Kind = "invalid-encoding"
)

// Diagnostic is a single report against a span of a unit. The message is
// kept as a template plus arguments and only formatted on demand.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Span     token.Span
	Template string
	Args     []any
}

func (d Diagnostic) Message() string {
	if len(d.Args) == 0 {
		return d.Template
	}
	return fmt.Sprintf(d.Template, d.Args...)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Span.Line, d.Span.Column, d.Severity, d.Message())
}

func Errorf(kind Kind, span token.Span, template string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Span: span, Template: template, Args: args}
}

func Warningf(kind Kind, span token.Span, template string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Kind: kind, Span: span, Template: template, Args: args}
}

// Reporter receives diagnostics as they are discovered. Implementations must
// be safe for concurrent use; units compiled in parallel may share one.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops everything.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

type tee []Reporter

func (t tee) Report(d Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}

// Tee fans a diagnostic out to every non-nil reporter in order.
func Tee(reporters ...Reporter) Reporter {
	out := make(tee, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// List is an append-only Reporter that keeps diagnostics in arrival order.
type List struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (l *List) Report(d Diagnostic) {
	l.mu.Lock()
	l.items = append(l.items, d)
	l.mu.Unlock()
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the collected diagnostics ordered by source
// position. Diagnostics at the same offset keep their arrival order.
func (l *List) Items() []Diagnostic {
	l.mu.Lock()
	out := slices.Clone(l.items)
	l.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		return a.Span.Start - b.Span.Start
	})
	return out
}

// Count returns the number of diagnostics of the given severity.
func Count(ds []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

func HasErrors(ds []Diagnostic) bool { return Count(ds, Error) > 0 }

type jsonDiagnostic struct {
	Severity Severity   `json:"severity"`
	Kind     Kind       `json:"kind"`
	Span     token.Span `json:"span"`
	Message  string     `json:"message"`
}

// MarshalJSON flattens the template so consumers across a process boundary
// receive the formatted message.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonDiagnostic{Severity: d.Severity, Kind: d.Kind, Span: d.Span, Message: d.Message()})
}
