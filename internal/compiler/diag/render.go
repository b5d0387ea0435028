package diag

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ruka-lang/ruka/internal/compiler/lib"
)

// Render writes d as a caret-annotated snippet of src:
//
//	main.ruka:2:9: error: expected expression, found end of file
//	   1 | fn main() do
//	   2 |   let x =
//	     |         ^
//	   3 | end
//
// At most one line of context is shown on each side. Line and column are
// clamped to the source so a stale span never breaks rendering.
func Render(w io.Writer, name string, src []byte, d Diagnostic) error {
	lines := strings.Split(string(src), "\n")
	line, col := d.Span.Line, d.Span.Column
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s:", name)
	}
	fmt.Fprintf(&b, "%d:%d: %s: %s\n", d.Span.Line, d.Span.Column, d.Severity, d.Message())

	width := lib.DigitWidth(min(line+1, len(lines)))
	if width < 4 {
		width = 4
	}
	gutter := func(n int, text string) {
		fmt.Fprintf(&b, "%*d | %s\n", width, n, strings.TrimRight(text, "\r"))
	}

	if line > 1 {
		gutter(line-1, lines[line-2])
	}
	gutter(line, lines[line-1])

	// Columns count bytes; the caret line counts runes.
	text := lines[line-1]
	pad := col - 1
	if pad <= len(text) {
		pad = utf8.RuneCountInString(text[:pad])
	} else {
		pad = utf8.RuneCountInString(text) + pad - len(text)
	}
	underline := 1
	if n := d.Span.Len(); n > 1 && d.Span.Line == line && col-1 < len(text) {
		// Keep the underline on the reported line.
		underline = max(1, utf8.RuneCountInString(text[col-1:min(col-1+n, len(text))]))
	}
	fmt.Fprintf(&b, "%s | %s%s\n", strings.Repeat(" ", width), strings.Repeat(" ", pad), strings.Repeat("^", underline))

	if line < len(lines) {
		gutter(line+1, lines[line])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAll renders every diagnostic in order, separated by blank lines.
func RenderAll(w io.Writer, name string, src []byte, ds []Diagnostic) error {
	for i, d := range ds {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Render(w, name, src, d); err != nil {
			return err
		}
	}
	return nil
}
