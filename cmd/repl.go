package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/emitter"
	"github.com/ruka-lang/ruka/internal/compiler/parser"
)

const (
	historyFile = ".ruka_history"
	promptMain  = "ruka> "
	promptCont  = "  ... "
)

// repl: parse input interactively and print the tree
var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Parse ruka statements interactively",
	Args:  cobra.NoArgs,
	RunE:  replRun,
}

func replRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "ruka repl. Enter statements to see their tree, :quit to exit.")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for n := 1; ; n++ {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}

		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		name := fmt.Sprintf("<repl:%d>", n)
		program, ds := parser.Parse(name, src)
		if len(ds) > 0 {
			_ = diag.RenderAll(cmd.ErrOrStderr(), name, []byte(src), ds)
		}
		fmt.Fprint(out, emitter.NewEmitter().Emit(program))
	}
}

// readStatement keeps prompting while the input so far ends mid-construct,
// which shows up as a diagnostic at the very end of the input.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() == 0 {
				return "", false
			}
			return b.String(), true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(src) {
			return src, true
		}
	}
}

func incomplete(src string) bool {
	_, ds := parser.Parse("", src)
	for _, d := range ds {
		if d.Severity != diag.Error {
			continue
		}
		// A literal left open at EOF, such as a multiline string, also continues.
		if d.Span.Start >= len(src) || (d.Kind == diag.UnterminatedLiteral && d.Span.End >= len(src)) {
			return true
		}
	}
	return false
}
