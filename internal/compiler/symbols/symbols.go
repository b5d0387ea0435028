package symbols

import "github.com/ruka-lang/ruka/internal/compiler/token"

type Kind int

const (
	Function Kind = iota
	Record
	Variant
	Module
	Import
	Binding
	Constant
	Parameter
)

var kindNames = [...]string{
	Function:  "function",
	Record:    "record",
	Variant:   "variant",
	Module:    "module",
	Import:    "import",
	Binding:   "binding",
	Constant:  "constant",
	Parameter: "parameter",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type SymbolInfo struct {
	Name   string     `json:"name"`
	Kind   Kind       `json:"kind"`
	Span   token.Span `json:"span"`
	Public bool       `json:"public,omitempty"`
	Mode   string     `json:"mode,omitempty"` // comptime, mut, mov or loc
	Type   string     `json:"type,omitempty"` // declared type, empty when inferred

	// --- Function specific info ---
	ParamNames []string `json:"params,omitempty"`
	ParamTypes []string `json:"param_types,omitempty"`
	ReturnType string   `json:"returns,omitempty"`

	// --- Aggregate specific info ---
	Members []string `json:"members,omitempty"` // record fields or variant cases
}
