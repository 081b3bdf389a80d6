package cli

import (
	"fmt"

	"github.com/existflow/irontodo/internal/app"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID or ID prefix.

Examples:
  irontodo delete abc123
  irontodo rm abc123 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		task, err := resolveTask(a, args[0])
		if err != nil {
			return fmt.Errorf("task not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		if cfg.ConfirmDelete && !deleteForce {
			fmt.Fprintf(out, "About to delete: \"%s\" (ID: %s)\n", task.Title, task.ID)
			if !confirm(cmd.InOrStdin(), out, "Are you sure?") {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if _, err := a.Tasks.Delete(task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		fmt.Fprintf(out, "🗑️  Deleted: \"%s\"\n", task.Title)
		return nil
	})
}
