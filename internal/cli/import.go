package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/existflow/irontodo/internal/app"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file.yaml|-]",
	Short: "Create tasks from a YAML file",
	Long: `Create tasks from a YAML document. Projects named in the file are
created when missing. Use - to read from stdin.

Example file:
  tasks:
    - title: Write report
      priority: high
      project: Work
      due_date: 2024-06-01
      tags: [writing]
      subtasks: [Outline, Draft]`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	return withApp(func(a *app.App) error {
		n, err := a.Importer.Import(string(data))
		if n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d task(s)\n", n)
		}
		// err already names the failing entry and its field violations
		return err
	})
}
