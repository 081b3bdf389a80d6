package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/app"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		t, err := resolveTask(a, args[0])
		if err != nil {
			return fmt.Errorf("task not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		when := func(tm *time.Time) string {
			if tm == nil {
				return "-"
			}
			return tm.Local().Format("Mon Jan 2 2006 15:04")
		}

		project := "Inbox"
		if t.ProjectID != "" {
			if p, ok := a.Projects.FindByID(t.ProjectID); ok {
				project = p.Name
			}
		}

		fmt.Fprintf(out, "\n%s %s\n", statusIcon(t.Status), headingStyle.Render(t.Title))
		fmt.Fprintln(out, mutedStyle.Render(strings.Repeat("─", 60)))
		fmt.Fprintf(out, "  ID:        %s\n", t.ID)
		fmt.Fprintf(out, "  Project:   %s\n", project)
		fmt.Fprintf(out, "  Status:    %s\n", t.Status)
		fmt.Fprintf(out, "  Priority:  %s %s\n", t.Priority, priorityLabel(t.Priority))
		fmt.Fprintf(out, "  Due:       %s\n", when(t.DueDate))
		fmt.Fprintf(out, "  Reminder:  %s\n", when(t.ReminderDate))
		if len(t.Tags) > 0 {
			fmt.Fprintf(out, "  Tags:      #%s\n", strings.Join(t.Tags, " #"))
		}
		if r := t.Recurrence; r != nil {
			fmt.Fprintf(out, "  Repeats:   %s every %d", r.Pattern, r.Interval)
			if r.EndDate != nil {
				fmt.Fprintf(out, " until %s", r.EndDate.Local().Format("Jan 2 2006"))
			}
			fmt.Fprintln(out)
		}
		if t.CompletedAt != nil {
			fmt.Fprintf(out, "  Completed: %s\n", when(t.CompletedAt))
		}
		fmt.Fprintf(out, "  Created:   %s\n", when(&t.CreatedAt))
		fmt.Fprintf(out, "  Updated:   %s\n", when(&t.UpdatedAt))

		if t.Description != "" {
			fmt.Fprintf(out, "\n  %s\n", strings.ReplaceAll(t.Description, "\n", "\n  "))
		}

		if len(t.Subtasks) > 0 {
			fmt.Fprintln(out, "\n  Subtasks:")
			for _, s := range t.Subtasks {
				mark := "[ ]"
				if s.Completed {
					mark = checkStyle.Render("[x]")
				}
				fmt.Fprintf(out, "    %s  %-8s  %s\n", mark, shortID(s.ID), s.Title)
			}
		}
		if len(t.Attachments) > 0 {
			fmt.Fprintln(out, "\n  Attachments:")
			for _, at := range t.Attachments {
				fmt.Fprintf(out, "    📎 %s (%s)\n", at.Name, at.Path)
			}
		}
		fmt.Fprintln(out)
		return nil
	})
}
