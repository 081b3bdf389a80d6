package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
	"github.com/spf13/cobra"
)

var subtaskCmd = &cobra.Command{
	Use:     "subtask",
	Aliases: []string{"sub"},
	Short:   "Manage a task's checklist",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add [task-id] [title]",
	Short: "Append a subtask",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSubtaskAdd,
}

var subtaskDoneCmd = &cobra.Command{
	Use:   "done [task-id] [subtask-id]",
	Short: "Toggle a subtask's completion",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubtaskDone,
}

var subtaskRmCmd = &cobra.Command{
	Use:     "rm [task-id] [subtask-id]",
	Aliases: []string{"delete"},
	Short:   "Remove a subtask",
	Args:    cobra.ExactArgs(2),
	RunE:    runSubtaskRm,
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd)
	subtaskCmd.AddCommand(subtaskDoneCmd)
	subtaskCmd.AddCommand(subtaskRmCmd)
}

func runSubtaskAdd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		task, err := resolveTask(a, args[0])
		if err != nil {
			return fmt.Errorf("task not found: %s", args[0])
		}
		updated, err := a.Tasks.AddSubtask(task.ID, strings.Join(args[1:], " "))
		if err != nil {
			return describeError(err)
		}
		s := updated.Subtasks[len(updated.Subtasks)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added subtask to \"%s\": %s (id: %s)\n", task.Title, s.Title, shortID(s.ID))
		return nil
	})
}

func runSubtaskDone(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		task, sub, err := resolveSubtask(a, args[0], args[1])
		if err != nil {
			return err
		}
		updated, err := a.Tasks.ToggleSubtask(task.ID, sub.ID)
		if err != nil {
			return describeError(err)
		}
		i := slices.IndexFunc(updated.Subtasks, func(s model.Subtask) bool { return s.ID == sub.ID })
		if updated.Subtasks[i].Completed {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Checked: %s\n", sub.Title)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "○ Unchecked: %s\n", sub.Title)
		}
		return nil
	})
}

func runSubtaskRm(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		task, sub, err := resolveSubtask(a, args[0], args[1])
		if err != nil {
			return err
		}
		if _, err := a.Tasks.RemoveSubtask(task.ID, sub.ID); err != nil {
			return describeError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed subtask: %s\n", sub.Title)
		return nil
	})
}

// resolveSubtask accepts a subtask id prefix or its 1-based position
func resolveSubtask(a *app.App, taskRef, subRef string) (model.Task, model.Subtask, error) {
	task, err := resolveTask(a, taskRef)
	if err != nil {
		return model.Task{}, model.Subtask{}, fmt.Errorf("task not found: %s", taskRef)
	}

	if n, err := strconv.Atoi(subRef); err == nil && n >= 1 && n <= len(task.Subtasks) {
		return task, task.Subtasks[n-1], nil
	}

	var matches []model.Subtask
	for _, s := range task.Subtasks {
		if strings.HasPrefix(s.ID, subRef) {
			matches = append(matches, s)
		}
	}
	if len(matches) != 1 {
		return model.Task{}, model.Subtask{}, errs.NotFound("subtask", subRef)
	}
	return task, matches[0], nil
}
