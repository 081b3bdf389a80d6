package cli

import (
	"fmt"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/tasks"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as done",
	Long: `Mark a task as completed. Completing a recurring task schedules its
next occurrence.

Examples:
  irontodo done abc123
  irontodo done abc123 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark task as not done")
}

func runDone(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		task, err := resolveTask(a, args[0])
		if err != nil {
			return fmt.Errorf("task not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		status := model.StatusCompleted
		if doneUndo {
			status = model.StatusActive
		}
		if task.Status == status {
			fmt.Fprintf(out, "Nothing to do: \"%s\" is already %s\n", task.Title, status)
			return nil
		}

		before := a.Tasks.Count()
		if _, err := a.Tasks.Update(task.ID, tasks.Patch{Status: &status}); err != nil {
			return describeError(err)
		}

		if doneUndo {
			fmt.Fprintf(out, "○ Reopened: \"%s\"\n", task.Title)
			return nil
		}
		fmt.Fprintf(out, "✓ Completed: \"%s\"\n", task.Title)
		if a.Tasks.Count() > before {
			fmt.Fprintln(out, "↻ Next occurrence scheduled")
		}
		return nil
	})
}
