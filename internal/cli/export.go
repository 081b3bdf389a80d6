package cli

import (
	"fmt"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file.db]",
	Short: "Export all data to a SQLite database",
	Long: `Write every task, project, tag and subtask into a SQLite database for
ad-hoc SQL queries. An existing file at the path is replaced.

Example:
  irontodo export todos.db
  sqlite3 todos.db "SELECT title FROM tasks WHERE status = 'active'"`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		doc, err := a.Store.Snapshot()
		if err != nil {
			return err
		}

		st, err := export.ToSQLite(doc, args[0])
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d tasks, %d projects, %d tags to %s\n",
			st.Tasks, st.Projects, st.Tags, args[0])
		return nil
	})
}
