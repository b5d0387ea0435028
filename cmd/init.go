package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const mainTemplate = `// %s: generated by ruka init

fn main() do
    io.println("hello from %s")
end

test "main runs" do
    main()
end
`

// init: scaffold a new project
var InitCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Scaffold a new ruka project",
	Args:  cobra.ExactArgs(1),
	RunE:  initRun,
}

func initRun(cmd *cobra.Command, args []string) error {
	dir := args[0]
	name := filepath.Base(dir)
	fmt.Fprintf(cmd.OutOrStdout(), "↪ scaffolding new project %q ...\n", name)

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s already exists", dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	mainFile := filepath.Join(dir, "src", "main.ruka")
	if err := os.WriteFile(mainFile, []byte(fmt.Sprintf(mainTemplate, name, name)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mainFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✔︎ created %s\n", mainFile)
	return nil
}
