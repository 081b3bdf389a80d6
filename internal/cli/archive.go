package cli

import (
	"fmt"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/tasks"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [task-id]",
	Short: "Archive a task, or sweep old completed tasks",
	Long: `Archive a single task, or with no argument archive every task completed
more than --days ago (default from config, 30).

Examples:
  irontodo archive abc123
  irontodo archive
  irontodo archive --days 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchive,
}

var archiveDays int

func init() {
	archiveCmd.Flags().IntVar(&archiveDays, "days", 0, "Archive tasks completed more than this many days ago")
}

func runArchive(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			task, err := resolveTask(a, args[0])
			if err != nil {
				return fmt.Errorf("task not found: %s", args[0])
			}
			status := model.StatusArchived
			if _, err := a.Tasks.Update(task.ID, tasks.Patch{Status: &status}); err != nil {
				return describeError(err)
			}
			fmt.Fprintf(out, "📦 Archived: \"%s\"\n", task.Title)
			return nil
		}

		days := cfg.ArchiveAfterDays
		if cmd.Flags().Changed("days") {
			days = archiveDays
		}
		n, err := a.Tasks.ArchiveOldCompleted(days)
		if err != nil {
			return fmt.Errorf("failed to archive tasks: %w", err)
		}
		fmt.Fprintf(out, "📦 Archived %d task(s) completed more than %d day(s) ago\n", n, days)
		return nil
	})
}
