package compiler

import (
	"encoding/json"
	"time"

	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/symbols"
)

// Status is the lifecycle state of a unit. A unit moves
// Pending -> Scanning -> Parsing -> Indexing -> Succeeded or Failed; a fatal
// source problem goes straight from Pending to Failed, and a unit that was
// never started because the run was canceled ends as Skipped. Scanning is
// brief: tokens are produced lazily while the unit is Parsing.
type Status int

const (
	Pending Status = iota
	Scanning
	Parsing
	Indexing
	Succeeded
	Failed
	Skipped
)

var statusNames = [...]string{
	Pending:   "pending",
	Scanning:  "scanning",
	Parsing:   "parsing",
	Indexing:  "indexing",
	Succeeded: "succeeded",
	Failed:    "failed",
	Skipped:   "skipped",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Done reports whether s is terminal.
func (s Status) Done() bool { return s == Succeeded || s == Failed || s == Skipped }

// Timings holds the measured phases of one unit. Scan and Parse split the
// combined scan+parse interval; scanning happens lazily as the parser pulls
// tokens.
type Timings struct {
	Scan  time.Duration `json:"scan"`
	Parse time.Duration `json:"parse"`
	Index time.Duration `json:"index"`
	Total time.Duration `json:"total"`
}

// Unit is one compiled source. Program is nil only for fatal units and for
// units skipped before they started.
type Unit struct {
	Index       int
	Name        string
	Status      Status
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
	Symbols     []symbols.SymbolInfo
	Artifact    string // S-expression tree, when requested
	Timings     *Timings
}

func (u *Unit) ErrorCount() int   { return diag.Count(u.Diagnostics, diag.Error) }
func (u *Unit) WarningCount() int { return diag.Count(u.Diagnostics, diag.Warning) }

type jsonUnit struct {
	Index       int                  `json:"index"`
	Name        string               `json:"name"`
	Status      Status               `json:"status"`
	Diagnostics []diag.Diagnostic    `json:"diagnostics"`
	Symbols     []symbols.SymbolInfo `json:"symbols,omitempty"`
	Tree        string               `json:"tree,omitempty"`
	Timings     *Timings             `json:"timings,omitempty"`
}

// MarshalJSON leaves out the syntax tree itself; consumers that want it ask
// for the rendered Artifact.
func (u *Unit) MarshalJSON() ([]byte, error) {
	ds := u.Diagnostics
	if ds == nil {
		ds = []diag.Diagnostic{}
	}
	return json.Marshal(jsonUnit{
		Index:       u.Index,
		Name:        u.Name,
		Status:      u.Status,
		Diagnostics: ds,
		Symbols:     u.Symbols,
		Tree:        u.Artifact,
		Timings:     u.Timings,
	})
}
