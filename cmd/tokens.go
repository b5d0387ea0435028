package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ruka-lang/ruka/internal/compiler"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
)

// tokens: dump the scanner output for a file
var TokensCmd = &cobra.Command{
	Use:   "tokens <source.ruka>",
	Short: "Print the token stream of a ruka source file",
	Args:  cobra.ExactArgs(1),
	RunE:  tokensRun,
}

func tokensRun(cmd *cobra.Command, args []string) error {
	src := compiler.ReadSources(args)[0]
	if src.Err != nil {
		return src.Err
	}

	var list diag.List
	toks := lexer.NewLexer(string(src.Text), &list).Tokens()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, tok := range toks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", tok.Span, tok.Kind, strconv.Quote(tok.Lexeme))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ds := list.Items()
	if len(ds) == 0 {
		return nil
	}
	if err := diag.RenderAll(cmd.ErrOrStderr(), src.Name, src.Text, ds); err != nil {
		return err
	}
	if diag.HasErrors(ds) {
		return fmt.Errorf("%d lexical error(s)", diag.Count(ds, diag.Error))
	}
	return nil
}
