package compiler

import (
	"github.com/ruka-lang/ruka/internal/compiler/diag"
)

// Result is the outcome of one Compile call. Units are in input order.
type Result struct {
	Units   []*Unit `json:"units"`
	Success bool    `json:"success"`
}

// Diagnostics flattens every unit's diagnostics in unit order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, u := range r.Units {
		out = append(out, u.Diagnostics...)
	}
	return out
}

func (r *Result) ErrorCount() int {
	n := 0
	for _, u := range r.Units {
		n += u.ErrorCount()
	}
	return n
}

func (r *Result) WarningCount() int {
	n := 0
	for _, u := range r.Units {
		n += u.WarningCount()
	}
	return n
}

// Unit returns the unit with the given name.
func (r *Result) Unit(name string) (*Unit, bool) {
	for _, u := range r.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// Skipped counts units that were never processed.
func (r *Result) Skipped() int {
	n := 0
	for _, u := range r.Units {
		if u.Status == Skipped {
			n++
		}
	}
	return n
}

// success holds iff no processed unit reported an error. Skipped units,
// including ones abandoned mid-parse, do not count against the run.
func success(units []*Unit) bool {
	for _, u := range units {
		if u.Status != Skipped && u.ErrorCount() > 0 {
			return false
		}
	}
	return true
}
